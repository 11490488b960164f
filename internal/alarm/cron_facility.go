package alarm

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

type entry struct {
	id    cron.EntryID
	at    time.Time
	token string
}

// CronFacility runs timers on a robfig/cron scheduler.
type CronFacility struct {
	cron       *cron.Cron
	jobTimeout time.Duration

	mu      sync.Mutex
	entries map[string]entry
	stopped bool
}

func NewCronFacility(loc *time.Location, jobTimeout time.Duration) *CronFacility {
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}
	return &CronFacility{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cron.PrintfLogger(log.Default())),
			cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default()))),
		),
		jobTimeout: jobTimeout,
		entries:    make(map[string]entry),
	}
}

func (f *CronFacility) Start() {
	f.cron.Start()
}

// Stop halts the scheduler and waits for running jobs. Pending timers are dropped.
func (f *CronFacility) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()

	ctx := f.cron.Stop()
	<-ctx.Done()
}

func (f *CronFacility) Arm(key string, at time.Time, job Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return ErrStopped
	}
	f.removeLocked(key)
	f.addLocked(key, at, job)
	return nil
}

func (f *CronFacility) ArmIfAbsent(key string, at time.Time, job Job) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return false, ErrStopped
	}
	if _, ok := f.entries[key]; ok {
		return false, nil
	}
	f.addLocked(key, at, job)
	return true, nil
}

func (f *CronFacility) Cancel(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(key)
	return nil
}

func (f *CronFacility) Pending(key string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	return e.at, ok
}

func (f *CronFacility) addLocked(key string, at time.Time, job Job) {
	token := uuid.NewString()
	id := f.cron.Schedule(&onceSchedule{at: at}, cron.FuncJob(func() {
		if !f.claim(key, token) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), f.jobTimeout)
		defer cancel()
		job(ctx)
	}))
	f.entries[key] = entry{id: id, at: at, token: token}
}

func (f *CronFacility) removeLocked(key string) {
	e, ok := f.entries[key]
	if !ok {
		return
	}
	delete(f.entries, key)
	f.cron.Remove(e.id)
}

// claim releases key before its job runs so the job may re-arm the same key.
// A timer that was replaced or cancelled after it started firing loses the claim.
func (f *CronFacility) claim(key, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok || e.token != token {
		return false
	}
	delete(f.entries, key)
	f.cron.Remove(e.id)
	return true
}

// onceSchedule yields its instant on the first call and never again.
type onceSchedule struct {
	at   time.Time
	used atomic.Bool
}

func (s *onceSchedule) Next(time.Time) time.Time {
	if s.used.Swap(true) {
		return time.Time{}
	}
	return s.at
}
