package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(TypeEntitlementGranted, "user-1", map[string]string{"item_id": "i1"})
	require.NoError(t, err)

	assert.NotEmpty(t, env.ID)
	assert.Equal(t, 1, env.Version)
	assert.Equal(t, "user-1", env.Key)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "i1", payload["item_id"])
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	a, _ := NewEnvelope(TypeEnrollmentCreated, "a@x.com", nil)
	b, _ := NewEnvelope(TypeEntitlementGranted, "u1", nil)
	r.Publish(context.Background(), a)
	r.Publish(context.Background(), b)

	assert.Len(t, r.Events(), 2)
	assert.Len(t, r.OfType(TypeEntitlementGranted), 1)
	assert.NoError(t, r.Close())
}

func TestPublisherFromEnvWithoutBrokersIsNoop(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	p := NewPublisherFromEnv()
	_, ok := p.(Noop)
	assert.True(t, ok)
	p.Publish(context.Background(), Envelope{})
	assert.NoError(t, p.Close())
}
