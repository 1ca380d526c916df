package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// CommandHandler is called when an operator command is received.
type CommandHandler func(command string) string

// discordMessage is one channel message from the Discord REST API.
type discordMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Author  struct {
		Bot bool `json:"bot"`
	} `json:"author"`
}

// CommandPoller reads operator commands from a Discord channel using a bot
// token. The webhook notifier is one-way, so replies to operator prompts
// ("Transfer complete? Reply to confirm.") arrive here.
type CommandPoller struct {
	Token     string
	ChannelID string
	BaseURL   string
	Client    *http.Client
	Interval  time.Duration

	lastID string
}

// NewCommandPoller creates a poller for the given channel.
func NewCommandPoller(token, channelID string) *CommandPoller {
	return &CommandPoller{
		Token:     token,
		ChannelID: channelID,
		BaseURL:   "https://discord.com/api/v10",
		Client:    &http.Client{Timeout: 30 * time.Second},
		Interval:  5 * time.Second,
	}
}

// StartPolling begins polling for operator commands. Blocks until ctx is
// cancelled. Messages already in the channel at startup are skipped.
func (p *CommandPoller) StartPolling(ctx context.Context, handler CommandHandler) {
	if err := p.seekToLatest(ctx); err != nil {
		log.Printf("[WARN] seek command channel: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] command polling stopped")
			return
		case <-time.After(p.Interval):
		}

		msgs, err := p.fetchNew(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] poll command channel: %v", err)
			continue
		}

		for _, msg := range msgs {
			p.lastID = msg.ID
			if msg.Author.Bot || msg.Content == "" {
				continue
			}
			text := strings.TrimSpace(msg.Content)
			log.Printf("[INFO] received command: %s", text)
			reply := handler(text)
			if reply != "" {
				if err := p.reply(ctx, reply); err != nil {
					log.Printf("[ERROR] send command reply: %v", err)
				}
			}
		}
	}
}

// seekToLatest records the newest message id so history is not replayed.
func (p *CommandPoller) seekToLatest(ctx context.Context) error {
	msgs, err := p.getMessages(ctx, "limit=1")
	if err != nil {
		return err
	}
	if len(msgs) > 0 {
		p.lastID = msgs[0].ID
	}
	return nil
}

// fetchNew returns messages after the last seen id, oldest first.
func (p *CommandPoller) fetchNew(ctx context.Context) ([]discordMessage, error) {
	query := "limit=20"
	if p.lastID != "" {
		query += "&after=" + p.lastID
	}
	msgs, err := p.getMessages(ctx, query)
	if err != nil {
		return nil, err
	}
	// Discord returns newest first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (p *CommandPoller) getMessages(ctx context.Context, query string) ([]discordMessage, error) {
	url := fmt.Sprintf("%s/channels/%s/messages?%s", p.BaseURL, p.ChannelID, query)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+p.Token)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch channel messages: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch channel messages: status %d, body: %s", resp.StatusCode, string(body))
	}

	var msgs []discordMessage
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("decode channel messages: %w", err)
	}
	return msgs, nil
}

func (p *CommandPoller) reply(ctx context.Context, content string) error {
	payload, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	url := fmt.Sprintf("%s/channels/%s/messages", p.BaseURL, p.ChannelID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("post reply: status %d, body: %s", resp.StatusCode, string(body))
	}
	return nil
}
