package events

import (
	"context"
	"time"

	"asclepius/internal/adapters/kafka"
	"asclepius/internal/domain/assessment"
	"asclepius/pkg/errors"
	"asclepius/pkg/logger"
)

// Publisher publishes pipeline events to Kafka
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer, log *logger.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		log:      log,
	}
}

// PublishAssessmentCompleted publishes one completed assessment, keyed by
// subject so a consumer sees each patient's assessments in order
func (p *Publisher) PublishAssessmentCompleted(ctx context.Context, source string, a *assessment.Assessment) error {
	event := NewAssessmentCompletedEvent(source, a)
	return p.publish(ctx, kafka.TopicAssessmentCompleted, a.SubjectID, event)
}

// PublishBatchCompleted publishes a batch run summary
func (p *Publisher) PublishBatchCompleted(ctx context.Context, source string, scored, failed int, failedSubjects []string, duration time.Duration, reportPaths []string) error {
	event := &BatchCompletedEvent{
		Base:            NewBaseEvent(TypeBatchCompleted, source),
		Scored:          scored,
		Failed:          failed,
		FailedSubjects:  failedSubjects,
		DurationSeconds: duration.Seconds(),
		ReportPaths:     reportPaths,
	}

	return p.publish(ctx, kafka.TopicBatchCompleted, event.Base.ID, event)
}

// PublishSessionSkipped publishes a dropped-session notice
func (p *Publisher) PublishSessionSkipped(ctx context.Context, source, sessionID, subjectID, reason string) error {
	event := &SessionSkippedEvent{
		Base:      NewBaseEvent(TypeSessionSkipped, source),
		SessionID: sessionID,
		SubjectID: subjectID,
		Reason:    reason,
	}

	return p.publish(ctx, kafka.TopicSessionSkipped, sessionID, event)
}

// publish is the generic publish method using JSON serialization
func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) error {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		p.log.Error("Failed to publish event",
			"topic", topic,
			"key", key,
			"error", err,
		)
		return errors.Wrap(err, "send to kafka")
	}

	p.log.Debug("Event published",
		"topic", topic,
		"key", key,
	)

	return nil
}
