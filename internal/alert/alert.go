package alert

import (
	"time"

	"sysmond/internal/stats"
)

// Level is the severity attached to a rule and the alerts it raises.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Rule decides, per data point, whether a condition holds. Rules are
// registered once and never mutated afterwards.
type Rule struct {
	ID        string
	Level     Level
	Predicate func(stats.DataPoint) bool
	Message   func(stats.DataPoint) string
}

// Alert is the firing record for one rule. There is at most one record per
// rule id; a fresh firing after resolution reuses the record with a reset
// FirstFiredAt.
type Alert struct {
	RuleID       string
	Level        Level
	Message      string
	FirstFiredAt time.Time
	Resolved     bool
	ResolvedAt   time.Time
}

// EventType distinguishes the two edges an alert can cross.
type EventType int

const (
	EventRaised EventType = iota
	EventResolved
)

func (t EventType) String() string {
	switch t {
	case EventRaised:
		return "raised"
	case EventResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Event is emitted exactly once per edge transition of a rule.
type Event struct {
	Type  EventType
	Alert Alert
}
