package tracker

import (
	"sort"
	"time"
)

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ActiveIntervals extracts the ranges where the user was present from
// idle-watcher events and merges overlapping or touching ranges into a
// minimal disjoint set, sorted by start.
func ActiveIntervals(idleEvents []Event) []Interval {
	var intervals []Interval
	for _, ev := range idleEvents {
		if ev.Status() != "not-afk" {
			continue
		}
		intervals = append(intervals, Interval{Start: ev.Timestamp, End: ev.End()})
	}
	if len(intervals) == 0 {
		return nil
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})

	merged := []Interval{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FilterActive clips window events to the portions overlapping active
// intervals, splitting events that span more than one interval. With no
// idle data at all, window events pass through unchanged: missing idle
// coverage must not be read as the user being away.
func FilterActive(windowEvents, idleEvents []Event) []Event {
	if len(idleEvents) == 0 {
		return windowEvents
	}

	active := ActiveIntervals(idleEvents)

	var filtered []Event
	for _, ev := range windowEvents {
		evEnd := ev.End()
		for _, iv := range active {
			if !ev.Timestamp.Before(iv.End) || !evEnd.After(iv.Start) {
				continue
			}
			start := ev.Timestamp
			if iv.Start.After(start) {
				start = iv.Start
			}
			end := evEnd
			if iv.End.Before(end) {
				end = iv.End
			}
			if !end.After(start) {
				continue
			}
			filtered = append(filtered, Event{
				Timestamp: start,
				Duration:  end.Sub(start).Seconds(),
				Data:      ev.Data,
			})
		}
	}
	return filtered
}
