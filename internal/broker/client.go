package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"Thufir/internal/model"

	"github.com/shopspring/decimal"
)

// sessionTTL is how long a brokerage session token is trusted before
// logging in again.
const sessionTTL = 12 * time.Hour

// Gateway is the slice of the brokerage the trading core consumes:
// read-only account data plus fire-and-forget order submission.
type Gateway interface {
	Balances(ctx context.Context) (*model.Balances, error)
	Positions(ctx context.Context) ([]model.Position, error)
	MarkPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	PlaceOrder(ctx context.Context, order *Order) (map[string]any, error)
}

// OrderLeg is a single leg of an option order.
type OrderLeg struct {
	InstrumentType string `json:"instrument-type"`
	Symbol         string `json:"symbol"`
	Quantity       int64  `json:"quantity"`
	Action         string `json:"action"`
	Effect         string `json:"effect"`
}

// Order is the brokerage order payload.
type Order struct {
	TimeInForce string          `json:"time-in-force"`
	OrderType   string          `json:"order-type"`
	Price       decimal.Decimal `json:"price"`
	PriceEffect string          `json:"price-effect"`
	Legs        []OrderLeg      `json:"legs"`
}

// Client talks to the brokerage sandbox REST API, maintaining a session
// token that is refreshed when it expires.
type Client struct {
	BaseURL       string
	Username      string
	Password      string
	AccountNumber string
	HTTP          *http.Client

	mu           sync.Mutex
	sessionToken string
	tokenExpires time.Time
}

// NewClient creates a brokerage client. No login happens until the first call.
func NewClient(baseURL, username, password, accountNumber string) *Client {
	return &Client{
		BaseURL:       baseURL,
		Username:      username,
		Password:      password,
		AccountNumber: accountNumber,
		HTTP:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) refreshSessionIfNeeded(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionToken != "" && time.Now().Before(c.tokenExpires) {
		return nil
	}
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{
		"login":       c.Username,
		"password":    c.Password,
		"remember-me": "true",
	})
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("brokerage login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brokerage login: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			SessionToken string `json:"session-token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if result.Data.SessionToken == "" {
		return fmt.Errorf("brokerage login: empty session token")
	}

	c.sessionToken = result.Data.SessionToken
	c.tokenExpires = time.Now().Add(sessionTTL)
	log.Printf("[INFO] brokerage session established for account %s", c.AccountNumber)
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.refreshSessionIfNeeded(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	req.Header.Set("Authorization", c.sessionToken)
	c.mu.Unlock()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d, body: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Balances fetches the current account balance snapshot.
func (c *Client) Balances(ctx context.Context) (*model.Balances, error) {
	var result struct {
		Data map[string]any `json:"data"`
	}
	path := fmt.Sprintf("/accounts/%s/balances", c.AccountNumber)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &model.Balances{
		Cash:               getDecimal(result.Data, "cash-balance"),
		NetLiq:             getDecimal(result.Data, "net-liquidating-value"),
		OptionBuyingPower:  getDecimal(result.Data, "option-buying-power"),
		StockBuyingPower:   getDecimal(result.Data, "stock-buying-power"),
		MaintenanceRequire: getDecimal(result.Data, "maintenance-requirement"),
	}, nil
}

// Positions fetches the open positions for the account.
func (c *Client) Positions(ctx context.Context) ([]model.Position, error) {
	var result struct {
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/accounts/%s/positions?include=underlyings", c.AccountNumber)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}

	positions := make([]model.Position, 0, len(result.Data.Items))
	for _, item := range result.Data.Items {
		positions = append(positions, model.Position{
			Symbol:           getString(item, "symbol"),
			UnderlyingSymbol: getString(item, "underlying-symbol"),
			InstrumentType:   getString(item, "instrument-type"),
			Quantity:         getDecimal(item, "quantity"),
			AveragePrice:     getDecimal(item, "average-open-price"),
			MarketValue:      getDecimal(item, "market-value"),
		})
	}
	return positions, nil
}

// MarkPrices fetches current mark prices for the given symbols.
func (c *Client) MarkPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if len(symbols) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	var result struct {
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	path := "/market-data?symbols=" + strings.Join(symbols, ",")
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(result.Data.Items))
	for _, item := range result.Data.Items {
		sym := getString(item, "symbol")
		if sym == "" {
			continue
		}
		prices[sym] = getDecimal(item, "mark")
	}
	return prices, nil
}

// PlaceOrder submits an order. Fire-and-forget: success or failure of the
// submission is all this core sees, no fill tracking.
func (c *Client) PlaceOrder(ctx context.Context, order *Order) (map[string]any, error) {
	if err := c.refreshSessionIfNeeded(ctx); err != nil {
		return nil, err
	}
	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}
	path := fmt.Sprintf("/accounts/%s/orders", c.AccountNumber)
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	req.Header.Set("Authorization", c.sessionToken)
	c.mu.Unlock()

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("place order: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	log.Printf("[INFO] order submitted to brokerage sandbox")
	return result.Data, nil
}

// Brokerage payloads carry numbers as strings or floats depending on the
// field; missing values become zero.
func getDecimal(m map[string]any, key string) decimal.Decimal {
	switch v := m[key].(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			log.Printf("[WARN] unparsable %s value %q", key, v)
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case nil:
		return decimal.Zero
	default:
		log.Printf("[WARN] unexpected type for %s: %T", key, v)
		return decimal.Zero
	}
}

func getString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
