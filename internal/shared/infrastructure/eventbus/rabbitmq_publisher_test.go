package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeID(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"envelope", `{"event_id":"4b9c1f0e-8a53-4d5e-9f6a-1b2c3d4e5f60","event_type":"todo.item.added"}`, "4b9c1f0e-8a53-4d5e-9f6a-1b2c3d4e5f60"},
		{"no id", `{"event_type":"todo.item.added"}`, ""},
		{"not json", `nope`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envelopeID([]byte(tt.payload)))
		})
	}
}

func TestRabbitMQPublisher_Unconnected(t *testing.T) {
	p := &RabbitMQPublisher{exchange: DefaultExchange}

	assert.ErrorIs(t, p.Publish(context.Background(), "todo.item.added", []byte(`{}`)), errBrokerClosed)
	assert.ErrorIs(t, p.Ping(context.Background()), errBrokerClosed)
}
