package events

import (
	"time"

	"github.com/google/uuid"

	"asclepius/internal/domain/assessment"
)

// Event schema versions are additive only; consumers tolerate unknown fields.
const eventVersion = "1.0"

// BaseEvent carries the envelope fields shared by every event
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a new base event with defaults
func NewBaseEvent(eventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// AssessmentCompletedEvent is published once per persisted assessment
type AssessmentCompletedEvent struct {
	Base               BaseEvent `json:"base"`
	AssessmentID       string    `json:"assessment_id"`
	SubjectID          string    `json:"subject_id"`
	SessionID          string    `json:"session_id"`
	CardiacScore       float64   `json:"cardiac_score"`
	MobilityScore      float64   `json:"mobility_score"`
	FinalScore         float64   `json:"final_score"`
	RecoveryDays       int       `json:"recovery_days"`
	Recommendations    []string  `json:"recommendations"`
	Policy             string    `json:"policy"`
	Mode               string    `json:"mode"`
	CardiacPercentile  *int      `json:"cardiac_percentile,omitempty"`
	MobilityPercentile *int      `json:"mobility_percentile,omitempty"`
}

// NewAssessmentCompletedEvent builds the event for a stored assessment
func NewAssessmentCompletedEvent(source string, a *assessment.Assessment) *AssessmentCompletedEvent {
	return &AssessmentCompletedEvent{
		Base:               NewBaseEvent(TypeAssessmentCompleted, source),
		AssessmentID:       a.ID.String(),
		SubjectID:          a.SubjectID,
		SessionID:          a.SessionID,
		CardiacScore:       a.CardiacScore,
		MobilityScore:      a.MobilityScore,
		FinalScore:         a.FinalScore,
		RecoveryDays:       a.RecoveryDays,
		Recommendations:    a.Recommendations,
		Policy:             a.Policy.String(),
		Mode:               a.Mode.String(),
		CardiacPercentile:  a.CardiacPercentile,
		MobilityPercentile: a.MobilityPercentile,
	}
}

// BatchCompletedEvent summarizes one batch scoring run
type BatchCompletedEvent struct {
	Base            BaseEvent `json:"base"`
	Scored          int       `json:"scored"`
	Failed          int       `json:"failed"`
	FailedSubjects  []string  `json:"failed_subjects,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	ReportPaths     []string  `json:"report_paths,omitempty"`
}

// SessionSkippedEvent reports a treadmill session the extractor dropped
type SessionSkippedEvent struct {
	Base      BaseEvent `json:"base"`
	SessionID string    `json:"session_id"`
	SubjectID string    `json:"subject_id"`
	Reason    string    `json:"reason"`
}

// Event type names carried in the envelope
const (
	TypeAssessmentCompleted = "recovery.assessment.completed"
	TypeBatchCompleted      = "recovery.batch.completed"
	TypeSessionSkipped      = "recovery.session.skipped"
)
