package monitor

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const (
	KafkaBatchInterval  = 1 * time.Second
	KafkaRequestTimeout = 60 * time.Second
	KafkaBatchSize      = 100
	KafkaChannelSize    = 100
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer messageWriter
	topic  string
	events chan RewardEvent
	nodeID string

	cancel context.CancelFunc
	done   chan struct{}
}

// RewardEvent is the record published for reward ticket and wallet transitions.
type RewardEvent struct {
	ID        *string `json:"id,omitempty"`
	Type      *string `json:"type"`
	Timestamp *string `json:"timestamp"`
	Node      *string `json:"node,omitempty"`
	Data      any     `json:"data"`
}

var (
	kafkaMu       sync.RWMutex
	kafkaProducer *KafkaProducer
)

func InitKafkaProducer(bootstrapServers, user, password, topic, nodeID string) error {
	producer, err := newKafkaProducer(bootstrapServers, user, password, topic, nodeID)
	if err != nil {
		return err
	}
	startKafkaProducer(producer)
	return nil
}

func startKafkaProducer(producer *KafkaProducer) {
	ctx, cancel := context.WithCancel(context.Background())
	producer.cancel = cancel
	producer.done = make(chan struct{})

	kafkaMu.Lock()
	kafkaProducer = producer
	kafkaMu.Unlock()

	go producer.processEvents(ctx)
}

// StopKafkaProducer flushes queued events and closes the writer.
func StopKafkaProducer() {
	kafkaMu.Lock()
	producer := kafkaProducer
	kafkaProducer = nil
	kafkaMu.Unlock()

	if producer == nil {
		return
	}
	producer.cancel()
	<-producer.done
	if err := producer.writer.Close(); err != nil {
		glog.Errorf("error closing Kafka writer, topic=%s, err=%v", producer.topic, err)
	}
}

func newKafkaProducer(bootstrapServers, user, password, topic, nodeID string) (*KafkaProducer, error) {
	if bootstrapServers == "" || topic == "" {
		return nil, fmt.Errorf("kafka producer requires bootstrap servers and topic")
	}

	dialer := &kafka.Dialer{
		Timeout:   KafkaRequestTimeout,
		DualStack: true,
	}

	if user != "" && password != "" {
		tls := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		sasl := &plain.Mechanism{
			Username: user,
			Password: password,
		}
		dialer.SASLMechanism = sasl
		dialer.TLS = tls
	}

	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  []string{bootstrapServers},
		Topic:    topic,
		Balancer: kafka.CRC32Balancer{},
		Dialer:   dialer,
	})

	return &KafkaProducer{
		writer: writer,
		topic:  topic,
		events: make(chan RewardEvent, KafkaChannelSize),
		nodeID: nodeID,
	}, nil
}

func (p *KafkaProducer) processEvents(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(KafkaBatchInterval)
	defer ticker.Stop()

	var eventsBatch []kafka.Message

	for {
		select {
		case event := <-p.events:
			if msg, ok := toMessage(event); ok {
				eventsBatch = append(eventsBatch, msg)
			}

			// Send batch if it reaches the defined size
			if len(eventsBatch) >= KafkaBatchSize {
				p.sendBatch(eventsBatch)
				eventsBatch = nil
			}

		case <-ticker.C:
			if len(eventsBatch) > 0 {
				p.sendBatch(eventsBatch)
				eventsBatch = nil
			}

		case <-ctx.Done():
			for {
				select {
				case event := <-p.events:
					if msg, ok := toMessage(event); ok {
						eventsBatch = append(eventsBatch, msg)
					}
					continue
				default:
				}
				break
			}
			if len(eventsBatch) > 0 {
				p.sendBatch(eventsBatch)
			}
			return
		}
	}
}

func toMessage(event RewardEvent) (kafka.Message, bool) {
	value, err := json.Marshal(event)
	if err != nil {
		glog.Errorf("error while marshalling reward event to Kafka, err=%v", err)
		return kafka.Message{}, false
	}
	return kafka.Message{
		Key:   []byte(*event.ID),
		Value: value,
	}, true
}

func (p *KafkaProducer) sendBatch(eventsBatch []kafka.Message) {
	// We retry sending messages to Kafka in case of a failure
	kafkaWriteRetries := 3
	var writeErr error
	for i := 0; i < kafkaWriteRetries; i++ {
		writeErr = p.writer.WriteMessages(context.Background(), eventsBatch...)
		if writeErr == nil {
			return
		}
		glog.Warningf("error while sending reward event batch to Kafka, retrying, topic=%s, try=%d, err=%v", p.topic, i, writeErr)
	}
	if writeErr != nil {
		glog.Errorf("error while sending reward event batch to Kafka, the events are lost, err=%v", writeErr)
	}
}

// SendRewardEventAsync queues an event for the next Kafka batch. It never blocks;
// events are dropped when the queue is full or no producer is configured.
func SendRewardEventAsync(eventType string, data any) {
	kafkaMu.RLock()
	producer := kafkaProducer
	kafkaMu.RUnlock()
	if producer == nil {
		return
	}

	randomID := uuid.New().String()
	timestampMs := time.Now().UnixMilli()

	event := RewardEvent{
		ID:        stringPtr(randomID),
		Node:      stringPtr(producer.nodeID),
		Type:      &eventType,
		Timestamp: stringPtr(fmt.Sprint(timestampMs)),
		Data:      data,
	}

	select {
	case producer.events <- event:
	default:
		glog.Warningf("kafka producer event queue is full, dropping event %q", eventType)
	}
}

func stringPtr(s string) *string {
	return &s
}
