//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("covid-state-etl-test"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

var lastDay = time.Date(2020, time.November, 20, 0, 0, 0, 0, time.UTC)

// mockWeek returns seven daily records for state ending at lastDay, oldest
// first, with constant new cases and tests.
func mockWeek(state string, positiveIncrease, tests int64) []domain.RawDailyRecord {
	out := make([]domain.RawDailyRecord, 7)
	for i := range out {
		date := lastDay.AddDate(0, 0, i-6)
		out[i] = domain.RawDailyRecord{
			Date:                     domain.FormatDate(date),
			State:                    state,
			Positive:                 positiveIncrease * int64(i+1),
			Negative:                 (tests - positiveIncrease) * int64(i+1),
			PositiveIncrease:         positiveIncrease,
			NegativeIncrease:         tests - positiveIncrease,
			TotalTestResultsIncrease: tests,
		}
	}
	return out
}
