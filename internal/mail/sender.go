// Package mail turns account events into user-facing messages.
package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/helper"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/queue"
)

// Sender delivers messages. There is no mail transport yet; messages are
// written to the log.
type Sender struct {
	log *zap.Logger
}

func NewSender(l *zap.Logger) *Sender {
	if l == nil {
		l = log.L()
	}
	return &Sender{log: l}
}

func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	log.WithDD(ctx, s.log).Info("[MAIL]",
		zap.String("to_hash", helper.Hash8(to)), zap.String("subject", subject), zap.String("body", body))
	return nil
}

// Handle is a queue.Handler. Undecodable events are dropped, since redelivery
// cannot fix them; send failures are returned so the event is requeued.
func (s *Sender) Handle(ctx context.Context, m queue.Message) error {
	l := s.log.With(zap.String("key", m.Key), zap.String("message_id", m.MessageID), zap.String("request_id", m.RequestID))

	switch m.Key {
	case queue.KeyUserRegistered:
		var ev queue.UserRegistered
		if err := json.Unmarshal(m.Body, &ev); err != nil {
			l.Error("drop undecodable event", zap.Error(err))
			return nil
		}
		return s.Send(ctx, ev.Email, "Welcome", welcome(ev.Name, ev.WorkspaceID.Hex()))

	case queue.KeyUserProvisioned:
		var ev queue.UserProvisioned
		if err := json.Unmarshal(m.Body, &ev); err != nil {
			l.Error("drop undecodable event", zap.Error(err))
			return nil
		}
		return s.Send(ctx, ev.Email, "Welcome", welcome(ev.Name, ev.WorkspaceID.Hex()))

	case queue.KeyUserLoggedIn:
		l.Debug("login event, nothing to send")
		return nil
	}

	l.Warn("unknown event key")
	return nil
}

func welcome(name, workspaceID string) string {
	return fmt.Sprintf("Hi %s, your workspace %s is ready.", name, workspaceID)
}
