package watcher

import (
	"context"
	"time"

	"github.com/ritzau/fm-ecosystem/pkg/logging"
)

// Debouncer merges bursts of change events so a table export that writes
// both files triggers one reload
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. An event is emitted once input
// has been quiet for quietPeriod, or maxWait after the first pending event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet    *time.Timer
		deadline *time.Timer
		paths    []string
		seen     = make(map[string]bool)
		count    int
	)

	stop := func() {
		if quiet != nil {
			quiet.Stop()
			quiet = nil
		}
		if deadline != nil {
			deadline.Stop()
			deadline = nil
		}
	}

	flush := func() {
		stop()
		if count == 0 {
			return
		}
		logging.Debug("flushing accumulated events", "count", count, "paths", len(paths))
		d.output <- ChangeEvent{Paths: paths, Timestamp: time.Now()}
		paths = nil
		seen = make(map[string]bool)
		count = 0
	}

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					paths = append(paths, p)
				}
			}
			count++

			if quiet == nil {
				quiet = time.NewTimer(d.quietPeriod)
			} else {
				if !quiet.Stop() {
					select {
					case <-quiet.C:
					default:
					}
				}
				quiet.Reset(d.quietPeriod)
			}
			if deadline == nil {
				deadline = time.NewTimer(d.maxWait)
			}

		case <-timerC(quiet):
			flush()

		case <-timerC(deadline):
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
