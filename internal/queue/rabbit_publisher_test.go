package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnvelope(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	ev := UserRegistered{UserID: primitive.NewObjectID(), WorkspaceID: primitive.NewObjectID(), Email: "a@x.com", Name: "Ann"}

	msg, err := envelope(KeyUserRegistered, ev, "req-7", at)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, KeyUserRegistered, msg.Type)
	assert.Equal(t, appID, msg.AppId)
	assert.Equal(t, "req-7", msg.CorrelationId)
	assert.Equal(t, at.UTC(), msg.Timestamp)
	assert.NotEmpty(t, msg.MessageId)

	var back UserRegistered
	require.NoError(t, json.Unmarshal(msg.Body, &back))
	assert.Equal(t, ev, back)

	// what the notifier sees on the other side
	m := messageOf(amqp.Delivery{RoutingKey: KeyUserRegistered, MessageId: msg.MessageId, Headers: msg.Headers, Body: msg.Body})
	assert.Equal(t, "req-7", m.RequestID)
	assert.Equal(t, msg.MessageId, m.MessageID)
}

func TestEnvelope_NoRequestID(t *testing.T) {
	msg, err := envelope(KeyUserLoggedIn, UserLoggedIn{}, "", time.Now())
	require.NoError(t, err)
	assert.Empty(t, msg.CorrelationId)
	assert.NotContains(t, msg.Headers, "X-Request-ID")

	a, _ := envelope(KeyUserLoggedIn, UserLoggedIn{}, "", time.Now())
	assert.NotEqual(t, a.MessageId, msg.MessageId)
}

func TestEnvelope_UnencodableEvent(t *testing.T) {
	_, err := envelope(KeyUserLoggedIn, make(chan int), "", time.Now())
	assert.ErrorContains(t, err, "encode user.loggedin")
}

func TestRabbitPublisher_NilIsNoop(t *testing.T) {
	var p *RabbitPublisher
	assert.NoError(t, p.Publish(context.Background(), Exchange, KeyUserLoggedIn, UserLoggedIn{}, ""))
	assert.NoError(t, p.Close())
}
