package kafka

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid-state-etl/internal/config"
	"github.com/couchcryptid/covid-state-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces region snapshots to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Messages
// are keyed by region code, so one region's snapshots stay ordered on a
// single partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes snapshots in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, snapshots []domain.RegionSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshots))
	for i := range snapshots {
		msg, err := serializeToMessage(snapshots[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("snapshots published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts a snapshot into a Kafka message.
func serializeToMessage(snap domain.RegionSnapshot) (kafkago.Message, error) {
	out, err := domain.SerializeSnapshot(snap)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   out.Key,
		Value: out.Value,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(out.Headers["region"])},
			{Key: "computed_at", Value: []byte(out.Headers["computed_at"])},
		},
	}, nil
}
