package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"Thufir/internal/model"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists decisions and profit goals to a SQLite database.
// Writes are mutex-serialized: one loop writes in practice, but interleaved
// partial records must never happen.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_decisions (
			id                  TEXT PRIMARY KEY,
			timestamp           INTEGER NOT NULL,
			action              TEXT NOT NULL,
			ticker              TEXT,
			rationale           TEXT,
			details_json        TEXT,
			probability_success REAL,
			expected_return     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ts ON trade_decisions(timestamp)`,

		`CREATE TABLE IF NOT EXISTS profit_goals (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			amount               TEXT NOT NULL,
			profit_taken         INTEGER NOT NULL DEFAULT 0,
			funds_transferred    INTEGER NOT NULL DEFAULT 0,
			created_at           INTEGER NOT NULL,
			updated_at           INTEGER NOT NULL,
			profit_taken_at      INTEGER,
			funds_transferred_at INTEGER
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveDecision(d *model.TradeDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO trade_decisions
		(id, timestamp, action, ticker, rationale, details_json, probability_success, expected_return)
		VALUES (?,?,?,?,?,?,?,?)`,
		d.ID, d.Timestamp.Unix(), string(d.Action), d.Ticker,
		d.Rationale, d.DetailsJSON, d.ProbabilitySuccess, d.ExpectedReturn,
	)
	return err
}

func (s *SQLiteStore) RecentDecisions(limit int) ([]model.TradeDecision, error) {
	rows, err := s.db.Query(`SELECT id, timestamp, action, ticker, rationale,
		details_json, probability_success, expected_return
		FROM trade_decisions ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TradeDecision
	for rows.Next() {
		var d model.TradeDecision
		var ts int64
		var action string
		var prob sql.NullFloat64
		if err := rows.Scan(&d.ID, &ts, &action, &d.Ticker, &d.Rationale,
			&d.DetailsJSON, &prob, &d.ExpectedReturn); err != nil {
			return nil, err
		}
		d.Timestamp = time.Unix(ts, 0)
		d.Action = model.Action(action)
		if prob.Valid {
			p := prob.Float64
			d.ProbabilitySuccess = &p
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ActiveGoal returns the latest goal whose profit has not been taken, or
// nil when there is none.
func (s *SQLiteStore) ActiveGoal() (*model.ProfitGoal, error) {
	row := s.db.QueryRow(`SELECT id, amount, profit_taken, funds_transferred,
		created_at, updated_at, profit_taken_at, funds_transferred_at
		FROM profit_goals WHERE profit_taken = 0 ORDER BY created_at DESC LIMIT 1`)
	g, err := scanGoal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (s *SQLiteStore) InsertGoal(g *model.ProfitGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO profit_goals
		(amount, profit_taken, funds_transferred, created_at, updated_at, profit_taken_at, funds_transferred_at)
		VALUES (?,?,?,?,?,?,?)`,
		g.Amount.String(), boolInt(g.ProfitTaken), boolInt(g.FundsTransferred),
		g.CreatedAt.Unix(), g.UpdatedAt.Unix(), unixPtr(g.ProfitTakenAt), unixPtr(g.FundsTransferredAt),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

func (s *SQLiteStore) UpdateGoal(g *model.ProfitGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE profit_goals SET amount = ?, profit_taken = ?,
		funds_transferred = ?, updated_at = ?, profit_taken_at = ?, funds_transferred_at = ?
		WHERE id = ?`,
		g.Amount.String(), boolInt(g.ProfitTaken), boolInt(g.FundsTransferred),
		g.UpdatedAt.Unix(), unixPtr(g.ProfitTakenAt), unixPtr(g.FundsTransferredAt), g.ID,
	)
	return err
}

func (s *SQLiteStore) PendingTransferGoals() ([]model.ProfitGoal, error) {
	rows, err := s.db.Query(`SELECT id, amount, profit_taken, funds_transferred,
		created_at, updated_at, profit_taken_at, funds_transferred_at
		FROM profit_goals WHERE profit_taken = 1 AND funds_transferred = 0
		ORDER BY profit_taken_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProfitGoal
	for rows.Next() {
		g, err := scanGoal(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

func scanGoal(scan func(dest ...any) error) (*model.ProfitGoal, error) {
	var g model.ProfitGoal
	var amount string
	var taken, transferred int
	var createdAt, updatedAt int64
	var takenAt, transferredAt sql.NullInt64

	if err := scan(&g.ID, &amount, &taken, &transferred,
		&createdAt, &updatedAt, &takenAt, &transferredAt); err != nil {
		return nil, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bad stored goal amount %q: %w", amount, err)
	}
	g.Amount = amt
	g.ProfitTaken = taken != 0
	g.FundsTransferred = transferred != 0
	g.CreatedAt = time.Unix(createdAt, 0)
	g.UpdatedAt = time.Unix(updatedAt, 0)
	if takenAt.Valid {
		t := time.Unix(takenAt.Int64, 0)
		g.ProfitTakenAt = &t
	}
	if transferredAt.Valid {
		t := time.Unix(transferredAt.Int64, 0)
		g.FundsTransferredAt = &t
	}
	return &g, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
