// Package dialogue provides the dialogue-engine webhook client.
// Clean Architecture: Adapter implementing ports.DialogueEngine. The engine
// classifies intent and triggers actions; this process only speaks its REST
// webhook contract.
package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
)

// Client posts user turns to a Rasa-style REST webhook:
// POST {sender, message} -> JSON array of {text, ...}.
type Client struct {
	webhookURL string
	client     *http.Client
}

// NewClient creates a dialogue-engine client with a bounded call timeout.
func NewClient(webhookURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

// webhookRequest is the engine's inbound payload shape.
type webhookRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Send forwards one user message. Failures map onto the dialogue error
// kinds so the transport layer can answer 502 vs 504 precisely. No retries.
func (c *Client) Send(ctx context.Context, senderKey, message string) (*entities.EngineReply, error) {
	jsonData, err := json.Marshal(webhookRequest{Sender: senderKey, Message: message})
	if err != nil {
		return nil, &entities.DialogueError{Kind: entities.DialogueProtocol, Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &entities.DialogueError{Kind: entities.DialogueProtocol, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &entities.DialogueError{Kind: entities.DialogueTimeout, Err: err}
		}
		return nil, &entities.DialogueError{Kind: entities.DialogueUnreachable, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, &entities.DialogueError{Kind: entities.DialogueTimeout, Err: err}
		}
		return nil, &entities.DialogueError{Kind: entities.DialogueProtocol, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &entities.DialogueError{Kind: entities.DialogueProtocol, Err: fmt.Errorf("engine returned status %d", resp.StatusCode)}
	}

	return parseReply(body)
}

// parseReply decodes the engine payload. The standard shape is an array of
// message objects; anything else valid stays opaque and is handed back raw.
func parseReply(body []byte) (*entities.EngineReply, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		reply := &entities.EngineReply{IsList: true, Raw: body}
		for _, item := range items {
			var m struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(item, &m); err != nil {
				return nil, &entities.DialogueError{Kind: entities.DialogueProtocol, Err: fmt.Errorf("decoding engine message: %w", err)}
			}
			reply.Messages = append(reply.Messages, entities.BotMessage{Text: m.Text, Raw: item})
		}
		return reply, nil
	}

	if !json.Valid(body) {
		return nil, &entities.DialogueError{Kind: entities.DialogueProtocol, Err: errors.New("engine returned invalid JSON")}
	}
	return &entities.EngineReply{IsList: false, Raw: body}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
