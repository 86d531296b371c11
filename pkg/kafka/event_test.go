package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	data := map[string]any{"session_id": "s-1", "item_count": 3}

	event, err := NewEvent("cart.updated", "s-1", "cart", "storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "s-1", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "storefront", event.Source)
	assert.False(t, event.Timestamp.IsZero())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, "s-1", decoded["session_id"])
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("cart.updated", "s-1", "cart", "storefront", make(chan int))
	assert.Error(t, err)
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	event, err := NewEvent("product.rated", "p-1", "product", "storefront", map[string]int{"value": 5})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	raw, err := event.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, event.EventType, got.EventType)
	assert.Equal(t, "corr-1", got.CorrelationID)
}

func TestUnmarshalEvent_Corrupt(t *testing.T) {
	_, err := UnmarshalEvent([]byte("{{nope"))
	assert.Error(t, err)
}
