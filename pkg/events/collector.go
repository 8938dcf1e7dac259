package events

import "slices"

// EventCollector holds the events raised by a value-typed aggregate. With
// never writes into a shared backing array, so copies of an aggregate keep
// independent event lists.
type EventCollector struct {
	events []DomainEvent
}

// With returns a collector holding the current events followed by e.
func (c EventCollector) With(e DomainEvent) EventCollector {
	next := make([]DomainEvent, len(c.events), len(c.events)+1)
	copy(next, c.events)
	return EventCollector{events: append(next, e)}
}

// Events returns a copy of the collected events, or nil when there are none.
func (c EventCollector) Events() []DomainEvent {
	if len(c.events) == 0 {
		return nil
	}
	return slices.Clone(c.events)
}
