package kafka

// Topic definitions for Kafka event streaming
const (
	// Assessment events
	TopicAssessmentCompleted = "recovery.assessment.completed"
	TopicBatchCompleted      = "recovery.batch.completed"

	// Intake events
	TopicSessionSkipped = "recovery.session.skipped"
)
