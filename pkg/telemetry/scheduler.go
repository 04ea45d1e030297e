// Package telemetry sends objects periodically over a link.
package telemetry

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/telelink/pkg/talk"
	"github.com/robotalks/telelink/pkg/uavobj"
)

// Sender transmits objects, implemented by talk.Conn.
type Sender interface {
	Send(ctx context.Context, objID uint32, instID uint16, acked bool, timeout time.Duration) error
}

var _ Sender = (*talk.Conn)(nil)

type schedule struct {
	obj    *uavobj.Object
	period time.Duration
	due    time.Time
}

// Scheduler sends every object with a period as unacked data, all
// instances at once.
type Scheduler struct {
	Sender Sender

	schedules []*schedule
}

// NewScheduler creates a Scheduler for the periodic objects in reg.
func NewScheduler(sender Sender, reg *uavobj.Registry) *Scheduler {
	s := &Scheduler{Sender: sender}
	for _, obj := range reg.Objects() {
		if ms := obj.Definition().PeriodMs; ms > 0 {
			s.schedules = append(s.schedules, &schedule{obj: obj, period: time.Duration(ms) * time.Millisecond})
		}
	}
	return s
}

// NumObjects returns the number of scheduled objects.
func (s *Scheduler) NumObjects() int {
	return len(s.schedules)
}

// Run implements framework.Runnable.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.schedules) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	now := time.Now()
	for _, sc := range s.schedules {
		sc.due = now.Add(sc.period)
	}
	timer := time.NewTimer(s.next().Sub(now))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-timer.C:
		}
		for _, sc := range s.schedules {
			if sc.due.After(now) {
				continue
			}
			if err := s.Sender.Send(ctx, sc.obj.ID(), talk.AllInstances, false, 0); err != nil {
				glog.Warningf("send %s: %v", sc.obj.Name(), err)
			}
			// skip missed periods rather than bursting
			for !sc.due.After(now) {
				sc.due = sc.due.Add(sc.period)
			}
		}
		timer.Reset(time.Until(s.next()))
	}
}

func (s *Scheduler) next() time.Time {
	next := s.schedules[0].due
	for _, sc := range s.schedules[1:] {
		if sc.due.Before(next) {
			next = sc.due
		}
	}
	return next
}
