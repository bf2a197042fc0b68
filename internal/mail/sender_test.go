package mail

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tazhibayda/workspace-service/internal/queue"
)

func TestHandle(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewSender(zap.New(core))
	ctx := context.Background()

	ws := primitive.NewObjectID()
	body, err := json.Marshal(queue.UserRegistered{UserID: primitive.NewObjectID(), WorkspaceID: ws, Email: "a@x.com", Name: "Ann"})
	require.NoError(t, err)

	require.NoError(t, s.Handle(ctx, queue.Message{Key: queue.KeyUserRegistered, Body: body}))
	sent := logs.FilterMessage("[MAIL]").All()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome", sent[0].ContextMap()["subject"])
	assert.Contains(t, sent[0].ContextMap()["body"], ws.Hex())

	require.NoError(t, s.Handle(ctx, queue.Message{Key: queue.KeyUserProvisioned, Body: []byte(`{`)}))
	assert.Equal(t, 1, logs.FilterMessage("drop undecodable event").Len())

	require.NoError(t, s.Handle(ctx, queue.Message{Key: queue.KeyUserLoggedIn, Body: []byte(`{}`)}))
	require.NoError(t, s.Handle(ctx, queue.Message{Key: "user.deleted", Body: []byte(`{}`)}))
	assert.Equal(t, 1, logs.FilterMessage("unknown event key").Len())
	assert.Len(t, logs.FilterMessage("[MAIL]").All(), 1)
}
