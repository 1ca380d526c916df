package oracle

import "context"

// Oracle is the external reasoning service consulted each cycle. It takes a
// free-text prompt and returns free text expected to be a single JSON
// decision object; nothing is enforced upstream, so callers must parse
// strictly and alert on malformed output.
type Oracle interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// Mock returns canned responses for development and testing.
type Mock struct {
	Responses []string
	Err       error

	calls int
}

func (m *Mock) Chat(_ context.Context, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return `{"action":"hold","rationale":"mock oracle default"}`, nil
	}
	resp := m.Responses[m.calls%len(m.Responses)]
	m.calls++
	return resp, nil
}
