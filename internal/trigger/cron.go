package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Event is emitted each time the schedule fires.
type Event struct {
	JobName   string
	Timestamp time.Time
}

// Cron fires events on a standard five-field cron schedule (descriptors like @daily work too).
type Cron struct {
	schedule string
	location *time.Location

	mu     sync.Mutex
	cron   *cron.Cron
	events chan Event
}

func NewCron(schedule, timezone string) (*Cron, error) {
	if schedule == "" {
		return nil, fmt.Errorf("cron schedule is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	location := time.UTC
	if timezone != "" {
		tz, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone: %w", err)
		}
		location = tz
	}
	return &Cron{schedule: schedule, location: location}, nil
}

// Start begins firing. Events are dropped while the previous one is still unconsumed,
// so a slow run never queues a backlog. The channel closes when ctx ends or Stop is called.
func (c *Cron) Start(ctx context.Context, jobName string) (<-chan Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil, fmt.Errorf("cron trigger already started")
	}

	events := make(chan Event, 1)
	sched := cron.New(cron.WithLocation(c.location))
	_, err := sched.AddFunc(c.schedule, func() {
		select {
		case events <- Event{JobName: jobName, Timestamp: time.Now().UTC()}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	c.cron = sched
	c.events = events
	sched.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return events, nil
}

func (c *Cron) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return nil
	}
	<-c.cron.Stop().Done()
	close(c.events)
	c.cron = nil
	c.events = nil
	return nil
}
