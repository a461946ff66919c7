// Package telemetry provides population metrics, milestones, lifetime
// tracking, and structured run output.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/dogpop/components"
)

// EventType identifies agent lifecycle events.
type EventType uint8

const (
	EventBirth EventType = iota
	EventDeath
	EventLitter
	EventMatured
	EventSpayed
)

var eventNames = [...]string{"birth", "death", "litter", "matured", "spayed"}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event is a single agent lifecycle occurrence within a step.
type Event struct {
	Type    EventType
	Month   int
	AgentID uint64
	Sex     components.Sex

	// Optional fields depending on event type
	ParentID uint64 // birth: mother
	Age      int    // death: age in months at death
	Size     int    // litter: offspring count
}

// NewBirthEvent creates a birth event.
func NewBirthEvent(month int, childID, parentID uint64, sex components.Sex) Event {
	return Event{Type: EventBirth, Month: month, AgentID: childID, ParentID: parentID, Sex: sex}
}

// NewDeathEvent creates a death event.
func NewDeathEvent(month int, id uint64, sex components.Sex, age int) Event {
	return Event{Type: EventDeath, Month: month, AgentID: id, Sex: sex, Age: age}
}

// NewLitterEvent creates a reproduction event for the parent.
func NewLitterEvent(month int, parentID uint64, sex components.Sex, size int) Event {
	return Event{Type: EventLitter, Month: month, AgentID: parentID, Sex: sex, Size: size}
}

// NewStageEvent creates a matured or spayed event from a stage transition.
// Returns false for transitions that are not tracked.
func NewStageEvent(month int, id uint64, sex components.Sex, to components.Stage) (Event, bool) {
	switch to {
	case components.StageReproductive:
		return Event{Type: EventMatured, Month: month, AgentID: id, Sex: sex}, true
	case components.StageSpayed:
		return Event{Type: EventSpayed, Month: month, AgentID: id, Sex: sex}, true
	}
	return Event{}, false
}

// LogValue implements slog.LogValuer for structured logging.
func (e Event) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.Type.String()),
		slog.Int("month", e.Month),
		slog.Uint64("agent", e.AgentID),
		slog.String("sex", e.Sex.String()),
	}
	switch e.Type {
	case EventBirth:
		attrs = append(attrs, slog.Uint64("parent", e.ParentID))
	case EventDeath:
		attrs = append(attrs, slog.Int("age", e.Age))
	case EventLitter:
		attrs = append(attrs, slog.Int("size", e.Size))
	}
	return slog.GroupValue(attrs...)
}
