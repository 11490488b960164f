package service

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"taskify/internal/alarm"
	"taskify/internal/model"
	"taskify/internal/repository"
	"taskify/internal/timeutil"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type armedTimer struct {
	at  time.Time
	job alarm.Job
}

// fakeFacility records armed timers and fires them on demand.
type fakeFacility struct {
	mu     sync.Mutex
	timers map[string]armedTimer
}

func newFakeFacility() *fakeFacility {
	return &fakeFacility{timers: make(map[string]armedTimer)}
}

func (f *fakeFacility) Arm(key string, at time.Time, job alarm.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers[key] = armedTimer{at: at, job: job}
	return nil
}

func (f *fakeFacility) ArmIfAbsent(key string, at time.Time, job alarm.Job) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.timers[key]; ok {
		return false, nil
	}
	f.timers[key] = armedTimer{at: at, job: job}
	return true, nil
}

func (f *fakeFacility) Cancel(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.timers, key)
	return nil
}

func (f *fakeFacility) Pending(key string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.timers[key]
	return t.at, ok
}

func (f *fakeFacility) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.timers))
	for k := range f.timers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fire removes the timer under key and runs its job, like a real one-shot alarm.
func (f *fakeFacility) Fire(t *testing.T, key string) {
	t.Helper()
	f.mu.Lock()
	timer, ok := f.timers[key]
	delete(f.timers, key)
	f.mu.Unlock()
	if !ok {
		t.Fatalf("no timer armed under %q", key)
	}
	timer.job(context.Background())
}

type notice struct {
	id    int
	title string
	body  string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, id int, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{id: id, title: title, body: body})
	return n.err
}

func (n *recordingNotifier) All() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

type testEnv struct {
	svc      *TaskService
	repo     *repository.TaskRepository
	facility *fakeFacility
	notifier *recordingNotifier
	clock    *fakeClock
}

// newTestEnv starts the clock at 2026-10-18 08:00 UTC with reminders interpreted in UTC.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = repository.CloseDB(db) })

	env := &testEnv{
		repo:     repository.NewTaskRepository(db),
		facility: newFakeFacility(),
		notifier: &recordingNotifier{},
		clock:    &fakeClock{now: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)},
	}
	env.svc, err = New(Deps{
		Store:     env.repo,
		Facility:  env.facility,
		Notifier:  env.notifier,
		Clock:     env.clock,
		Location:  time.UTC,
		SweepTime: "10:00",
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return env
}

func dateOf(y int, m time.Month, d int) *time.Time {
	t := timeutil.CalendarDateToInstant(timeutil.Date{Year: y, Month: m, Day: d})
	return &t
}

func minutesOf(v int) *int { return &v }

func (e *testEnv) save(t *testing.T, task model.Task) model.Task {
	t.Helper()
	saved, err := e.svc.SaveTask(context.Background(), task)
	if err != nil {
		t.Fatalf("save task: %v", err)
	}
	return saved
}
