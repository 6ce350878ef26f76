package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is the persisted outcome of scoring one subject's test session
type Assessment struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	SubjectID          string    `db:"subject_id" json:"subject_id"`
	SessionID          string    `db:"session_id" json:"session_id"`
	CardiacScore       float64   `db:"cardiac_score" json:"cardiac_score"`
	MobilityScore      float64   `db:"mobility_score" json:"mobility_score"`
	FinalScore         float64   `db:"final_score" json:"final_score"`
	RecoveryDays       int       `db:"recovery_days" json:"recovery_days"`
	Recommendations    []string  `db:"recommendations" json:"recommendations"`
	Policy             Policy    `db:"policy" json:"policy"`
	Mode               Mode      `db:"mode" json:"mode"`
	CardiacPercentile  *int      `db:"cardiac_percentile" json:"cardiac_percentile,omitempty"`
	MobilityPercentile *int      `db:"mobility_percentile" json:"mobility_percentile,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Scores returns the sub-scores carried by the assessment
func (a *Assessment) Scores() SubScores {
	return SubScores{
		Cardiac:  a.CardiacScore,
		Mobility: a.MobilityScore,
		Final:    a.FinalScore,
	}
}

// NewAssessment stamps identity and time onto an interpreted result
func NewAssessment(subjectID, sessionID string, scores SubScores, ev Evaluation, policy Policy, mode Mode) *Assessment {
	return &Assessment{
		ID:                 uuid.New(),
		SubjectID:          subjectID,
		SessionID:          sessionID,
		CardiacScore:       scores.Cardiac,
		MobilityScore:      scores.Mobility,
		FinalScore:         scores.Final,
		RecoveryDays:       ev.RecoveryDays,
		Recommendations:    ev.Recommendations,
		Policy:             policy,
		Mode:               mode,
		CardiacPercentile:  ev.CardiacPercentile,
		MobilityPercentile: ev.MobilityPercentile,
		CreatedAt:          time.Now().UTC(),
	}
}
