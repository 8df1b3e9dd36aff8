package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	fails  int
	calls  int
	closed bool
}

func (w *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.fails > 0 {
		w.fails--
		return errors.New("broker unavailable")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestSendRewardEventAsync(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// No producer configured
	SendRewardEventAsync("reward_confirmed", nil)

	w := &stubWriter{fails: 1}
	startKafkaProducer(&KafkaProducer{
		writer: w,
		topic:  "rewards",
		events: make(chan RewardEvent, KafkaChannelSize),
		nodeID: "node-1",
	})

	SendRewardEventAsync("reward_confirmed", map[string]string{"gameID": "g1"})
	SendRewardEventAsync("wallet_connected", map[string]string{"account": "0x1"})
	StopKafkaProducer()

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.True(w.closed)
	assert.Equal(2, w.calls)
	require.Len(w.msgs, 2)

	var ev struct {
		ID   string            `json:"id"`
		Type string            `json:"type"`
		Node string            `json:"node"`
		Data map[string]string `json:"data"`
	}
	require.Nil(json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal("reward_confirmed", ev.Type)
	assert.Equal("node-1", ev.Node)
	assert.Equal("g1", ev.Data["gameID"])
	assert.Equal(ev.ID, string(w.msgs[0].Key))

	// Stopping twice is harmless
	StopKafkaProducer()
}

func TestNewKafkaProducerRequiresTopic(t *testing.T) {
	_, err := newKafkaProducer("localhost:9092", "", "", "", "node")
	assert.NotNil(t, err)
	_, err = newKafkaProducer("", "", "", "rewards", "node")
	assert.NotNil(t, err)
}
