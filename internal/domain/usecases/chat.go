// Package usecases - chat.go drives one chat exchange end to end.
package usecases

import (
	"context"
	"strings"

	"github.com/0xcro3dile/campuschat-go/internal/domain/entities"
	"github.com/0xcro3dile/campuschat-go/internal/domain/ports"
)

// ChatUseCase is the per-request state machine: validate the input,
// resolve the session, log the user turn, forward to the dialogue engine,
// and log every bot turn in emission order.
type ChatUseCase struct {
	sessions ports.SessionStore
	log      ports.MessageStore
	engine   ports.DialogueEngine
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
func NewChatUseCase(sessions ports.SessionStore, log ports.MessageStore, engine ports.DialogueEngine) *ChatUseCase {
	return &ChatUseCase{sessions: sessions, log: log, engine: engine}
}

// Chat handles one inbound user message.
//
// Blank input is rejected before any side effect: no session row, no log
// entry. The user turn is persisted before the engine call so the input
// survives an engine failure. Engine errors pass through typed so the
// transport layer can pick the right status.
func (uc *ChatUseCase) Chat(ctx context.Context, sessionKey, message string, userID *int64) (*entities.EngineReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, entities.ErrEmptyMessage
	}

	sessionID, err := uc.sessions.GetOrCreate(ctx, sessionKey, userID)
	if err != nil {
		return nil, &entities.StorageError{Err: err}
	}

	if err := uc.log.Append(ctx, entities.Message{
		SessionID: sessionID,
		Sender:    entities.SenderUser,
		Text:      message,
	}); err != nil {
		return nil, &entities.StorageError{Err: err}
	}

	reply, err := uc.engine.Send(ctx, sessionKey, message)
	if err != nil {
		return nil, err
	}

	if reply.IsList {
		for _, m := range reply.Messages {
			text := strings.TrimSpace(m.Text)
			if text == "" {
				continue
			}
			if err := uc.log.Append(ctx, entities.Message{
				SessionID: sessionID,
				Sender:    entities.SenderBot,
				Text:      text,
				Metadata:  m.Raw,
			}); err != nil {
				return nil, &entities.StorageError{Err: err}
			}
		}
		return reply, nil
	}

	// Unexpected payload shape: log it whole as a single bot turn and
	// still hand it back to the caller.
	if err := uc.log.Append(ctx, entities.Message{
		SessionID: sessionID,
		Sender:    entities.SenderBot,
		Text:      string(reply.Raw),
		Metadata:  reply.Raw,
	}); err != nil {
		return nil, &entities.StorageError{Err: err}
	}
	return reply, nil
}
