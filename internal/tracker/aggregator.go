package tracker

import (
	"context"
	"sort"
	"time"
)

// Aggregator produces snapshots for every timeframe from a single fetch
// of the widest required range.
type Aggregator struct {
	client *Client
}

func NewAggregator(client *Client) *Aggregator {
	return &Aggregator{client: client}
}

// Collect fetches the widest window once, applies idle filtering, and
// derives per-timeframe snapshots by narrowing the already-fetched set.
func (a *Aggregator) Collect(ctx context.Context, now time.Time) (map[Timeframe]*Snapshot, error) {
	widest := TimeframeToday.Span(now)
	start := now.Add(-widest)

	windowEvents, idleEvents, err := a.client.FetchRange(ctx, start, now)
	if err != nil {
		return nil, err
	}

	activeEvents := FilterActive(windowEvents, idleEvents)
	sort.Slice(activeEvents, func(i, j int) bool {
		return activeEvents[i].Timestamp.Before(activeEvents[j].Timestamp)
	})

	snapshots := make(map[Timeframe]*Snapshot, len(Timeframes))
	for _, tf := range Timeframes {
		cutoff := now.Add(-tf.Span(now))
		if cutoff.Before(start) {
			cutoff = start
		}

		var frameEvents []Event
		for _, ev := range activeEvents {
			if !ev.Timestamp.Before(cutoff) {
				frameEvents = append(frameEvents, ev)
			}
		}
		var frameIdle []Event
		for _, ev := range idleEvents {
			if !ev.Timestamp.Before(cutoff) {
				frameIdle = append(frameIdle, ev)
			}
		}

		snapshots[tf] = &Snapshot{
			Start:        cutoff,
			End:          now,
			WindowEvents: frameEvents,
			IdleEvents:   frameIdle,
			Stats:        ComputeStats(frameEvents),
		}
	}
	return snapshots, nil
}
