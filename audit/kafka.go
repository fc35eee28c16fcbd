package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// KafkaRecorder publishes entries as JSON messages keyed by nonce.
type KafkaRecorder struct {
	Producer sarama.SyncProducer
	Topic    string
}

// NewKafkaProducer returns a sync producer that waits for all in-sync
// replicas before acknowledging.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// Record implements Recorder.
func (k KafkaRecorder) Record(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.Topic,
		Value: sarama.ByteEncoder(b),
	}
	if e.Nonce != "" {
		msg.Key = sarama.StringEncoder(e.Nonce)
	}

	// SendMessage ignores ctx, so the send is abandoned once ctx is done
	done := make(chan error, 1)
	go func() {
		_, _, err := k.Producer.SendMessage(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("publish audit entry: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish audit entry: %w", ctx.Err())
	}
}
