package scheduler

import (
	"strconv"

	"crowdsale/core/types"
)

const (
	// EventTypeIntervalRegistered is emitted once when a schedule is created.
	EventTypeIntervalRegistered = "scheduler.interval.registered"
	// EventTypeIntervalsProcessed is emitted when a gate consumes elapsed intervals.
	EventTypeIntervalsProcessed = "scheduler.intervals.processed"
)

// IntervalRegisteredEvent describes a newly registered schedule.
func IntervalRegisteredEvent(id string, interval, lastUpdate uint64) *types.Event {
	return &types.Event{
		Type: EventTypeIntervalRegistered,
		Attributes: map[string]string{
			"schedule":   id,
			"interval":   strconv.FormatUint(interval, 10),
			"lastUpdate": strconv.FormatUint(lastUpdate, 10),
		},
	}
}

// IntervalsProcessedEvent reports how many intervals a gate consumed.
func IntervalsProcessedEvent(id string, count, lastUpdate uint64) *types.Event {
	return &types.Event{
		Type: EventTypeIntervalsProcessed,
		Attributes: map[string]string{
			"schedule":   id,
			"count":      strconv.FormatUint(count, 10),
			"lastUpdate": strconv.FormatUint(lastUpdate, 10),
		},
	}
}
