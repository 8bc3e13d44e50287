package abuse

import (
	"time"

	"github.com/rs/zerolog"
)

// ActivityKind names the guarded action.
type ActivityKind string

const (
	ActivityVote              ActivityKind = "vote"
	ActivityProductSubmission ActivityKind = "product_submission"
)

// ActivityRecord describes a blocked attempt.
type ActivityRecord struct {
	UserID    string
	Kind      ActivityKind
	ProductID string
	RiskScore int
	Reasons   []string
	Timestamp time.Time
}

// ActivityLogger receives a record for every blocked attempt.
type ActivityLogger interface {
	LogSuspicious(rec ActivityRecord)
}

// ZerologActivityLogger writes records to the operational log.
type ZerologActivityLogger struct {
	log zerolog.Logger
}

// NewZerologActivityLogger creates a logger that writes through log.
func NewZerologActivityLogger(log zerolog.Logger) *ZerologActivityLogger {
	return &ZerologActivityLogger{log: log}
}

// LogSuspicious emits rec at WARN level.
func (l *ZerologActivityLogger) LogSuspicious(rec ActivityRecord) {
	evt := l.log.Warn().
		Str("userId", rec.UserID).
		Str("activityType", string(rec.Kind)).
		Int("riskScore", rec.RiskScore).
		Strs("reasons", rec.Reasons).
		Time("timestamp", rec.Timestamp)
	if rec.ProductID != "" {
		evt = evt.Str("productId", rec.ProductID)
	}
	evt.Msg("suspicious activity detected")
}
