package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/sensor-warning-map/internal/config"
	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// Writer publishes sensor exposures to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured exposure topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes exposures in a single WriteMessages call. Messages are
// keyed by sensor so each sensor's exposures stay ordered within a partition.
func (w *Writer) LoadBatch(ctx context.Context, exposures []domain.Exposure) error {
	if len(exposures) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(exposures))
	for i := range exposures {
		msg, err := serializeToMessage(exposures[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write exposures: %w", err)
	}
	w.logger.Debug("published exposures", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Exposure into a Kafka message.
func serializeToMessage(e domain.Exposure) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize exposure: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(e.SensorID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(e.Status)},
			{Key: "observed_at", Value: []byte(e.Timestamp.Format(time.RFC3339))},
		},
	}, nil
}
