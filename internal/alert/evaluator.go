package alert

import (
	"fmt"
	"sync"
	"time"

	"sysmond/internal/logging"
	"sysmond/internal/stats"
)

// Evaluator runs registered rules against incoming data points and tracks
// each rule through the inactive -> firing -> resolved cycle. Events are
// edge-triggered: a rule that stays true across many points raises once.
type Evaluator struct {
	mu     sync.Mutex
	rules  []Rule
	ids    map[string]struct{}
	state  map[string]*Alert
	logger *logging.Logger
	now    func() time.Time
}

// NewEvaluator returns an evaluator with no rules registered. A nil logger
// falls back to the package global.
func NewEvaluator(logger *logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Evaluator{
		ids:    make(map[string]struct{}),
		state:  make(map[string]*Alert),
		logger: logger.WithComponent("alerts"),
		now:    time.Now,
	}
}

// Register adds a rule. Rules are evaluated in registration order, which
// makes event ordering within one point deterministic.
func (e *Evaluator) Register(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("alert rule needs a non-empty id")
	}
	if rule.Predicate == nil {
		return fmt.Errorf("alert rule %q needs a predicate", rule.ID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.ids[rule.ID]; exists {
		return fmt.Errorf("alert rule %q already registered", rule.ID)
	}
	e.ids[rule.ID] = struct{}{}
	e.rules = append(e.rules, rule)

	return nil
}

// ReplaceRules swaps the rule set while keeping existing alert records, so
// a threshold change does not orphan a firing alert: the next evaluation of
// the same rule id resolves or sustains it under the new predicate.
func (e *Evaluator) ReplaceRules(rules []Rule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make(map[string]struct{}, len(rules))
	for _, rule := range rules {
		if rule.ID == "" || rule.Predicate == nil {
			return fmt.Errorf("alert rule %q is incomplete", rule.ID)
		}
		if _, dup := ids[rule.ID]; dup {
			return fmt.Errorf("alert rule %q appears twice", rule.ID)
		}
		ids[rule.ID] = struct{}{}
	}

	e.rules = append(e.rules[:0:0], rules...)
	e.ids = ids

	return nil
}

// Evaluate runs every rule against the point and returns the edge events it
// produced, in rule registration order.
func (e *Evaluator) Evaluate(point stats.DataPoint) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	var events []Event
	now := e.now()

	for _, rule := range e.rules {
		firing := e.evalPredicate(rule, point)
		record, exists := e.state[rule.ID]

		switch {
		case firing && (!exists || record.Resolved):
			fresh := &Alert{
				RuleID:       rule.ID,
				Level:        rule.Level,
				Message:      e.buildMessage(rule, point),
				FirstFiredAt: now,
			}
			e.state[rule.ID] = fresh
			events = append(events, Event{Type: EventRaised, Alert: *fresh})

		case !firing && exists && !record.Resolved:
			record.Resolved = true
			record.ResolvedAt = now
			events = append(events, Event{Type: EventResolved, Alert: *record})
		}
	}

	return events
}

// Active returns copies of all unresolved alerts in rule registration order.
func (e *Evaluator) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var active []Alert
	for _, rule := range e.rules {
		if record, ok := e.state[rule.ID]; ok && !record.Resolved {
			active = append(active, *record)
		}
	}
	return active
}

// All returns copies of every alert record, resolved or not, in rule
// registration order.
func (e *Evaluator) All() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	var all []Alert
	for _, rule := range e.rules {
		if record, ok := e.state[rule.ID]; ok {
			all = append(all, *record)
		}
	}
	return all
}

// Clear drops every alert record. Rules stay registered.
func (e *Evaluator) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = make(map[string]*Alert)
}

// evalPredicate treats a panicking predicate as false for this point.
// A flaky metric source must not turn the evaluator itself into an outage.
func (e *Evaluator) evalPredicate(rule Rule, point stats.DataPoint) (firing bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("alert predicate failed, treating as not firing",
				"rule", rule.ID, "panic", fmt.Sprint(r))
			firing = false
		}
	}()
	return rule.Predicate(point)
}

func (e *Evaluator) buildMessage(rule Rule, point stats.DataPoint) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("alert message builder failed",
				"rule", rule.ID, "panic", fmt.Sprint(r))
			msg = fmt.Sprintf("alert %s fired", rule.ID)
		}
	}()
	if rule.Message == nil {
		return fmt.Sprintf("alert %s fired", rule.ID)
	}
	return rule.Message(point)
}
