package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"freightline/pkg/kafka"
	"freightline/pkg/logger"
	"freightline/pkg/model"
)

// Recorder hands terminal call outcomes to the analytics collaborator.
// Delivery is best-effort: failures are logged and swallowed so the operation
// that produced the outcome never fails on analytics.
type Recorder interface {
	Record(ctx context.Context, outcome *model.CallOutcome)
}

type kafkaRecorder struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaRecorder(producer *kafka.Producer, log *logger.Logger) Recorder {
	return &kafkaRecorder{producer: producer, log: log}
}

func (r *kafkaRecorder) Record(ctx context.Context, outcome *model.CallOutcome) {
	if outcome.CallID == "" {
		outcome.CallID = uuid.New().String()
	}
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = time.Now()
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		r.log.Error("Failed to encode call outcome", "call_id", outcome.CallID, "error", err)
		return
	}

	key := outcome.CallerNumber
	if mc, ok := outcome.ExtractedData["mc_number"]; ok && mc != "" {
		key = mc
	}
	if key == "" {
		key = outcome.CallID
	}

	if err := r.producer.Publish(ctx, key, string(outcome.Classification), data); err != nil {
		r.log.Warn("Failed to deliver call outcome",
			"call_id", outcome.CallID,
			"classification", outcome.Classification,
			"error", err,
		)
		return
	}

	r.log.Debug("Call outcome recorded", "call_id", outcome.CallID, "classification", outcome.Classification)
}

type noopRecorder struct{}

// NewNoopRecorder is used when no analytics brokers are configured.
func NewNoopRecorder() Recorder {
	return noopRecorder{}
}

func (noopRecorder) Record(context.Context, *model.CallOutcome) {}
