package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskify/internal/model"
	"taskify/internal/timeutil"
)

func (e *testEnv) insertOverdue(t *testing.T, title string) model.Task {
	t.Helper()
	task := model.Task{
		Title:        title,
		Description:  title + " details",
		Date:         dateOf(2026, 10, 15),
		Time:         minutesOf(9 * 60),
		ReminderType: model.ReminderOnTime,
		IsCreated:    true,
	}
	if err := e.repo.Insert(context.Background(), &task); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return task
}

func TestSweepSingleOverdueTaskNotifiesThatTask(t *testing.T) {
	env := newTestEnv(t)
	a := env.insertOverdue(t, "A")

	result, err := env.svc.CheckNow(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(result.Overdue) != 1 {
		t.Fatalf("expected one overdue task, got %d", len(result.Overdue))
	}
	got := env.notifier.All()
	if len(got) != 1 || got[0] != (notice{id: a.ID, title: "A", body: "A details"}) {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestSweepManyOverdueTasksSendsOneSummary(t *testing.T) {
	env := newTestEnv(t)
	for _, title := range []string{"A", "B", "C"} {
		env.insertOverdue(t, title)
	}

	if _, err := env.svc.CheckNow(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	got := env.notifier.All()
	want := notice{id: OverdueSummaryID, title: "Pending Tasks", body: "You have 3 overdue tasks!"}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSweepIgnoresTodayCompletedAndSilentTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	today := model.Task{Title: "today", Date: dateOf(2026, 10, 18), Time: minutesOf(60), ReminderType: model.ReminderOnTime, IsCreated: true}
	silent := model.Task{Title: "silent", Date: dateOf(2026, 10, 1), ReminderType: model.ReminderNone, IsCreated: true}
	done := model.Task{Title: "done", Date: dateOf(2026, 10, 1), ReminderType: model.ReminderOnTime, IsCreated: true}
	done.Complete(env.clock.Now())
	for _, task := range []*model.Task{&today, &silent, &done} {
		if err := env.repo.Insert(ctx, task); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	result, err := env.svc.CheckNow(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(result.Overdue) != 0 || len(env.notifier.All()) != 0 {
		t.Fatalf("expected nothing overdue, got %+v", result.Overdue)
	}
}

func TestSweepTimerRearmsExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.EnsureDailySweep(); err != nil {
		t.Fatalf("arm sweep: %v", err)
	}
	first, ok := env.facility.Pending(sweepKey)
	if !ok || !first.Equal(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first sweep %v (armed=%t)", first, ok)
	}

	env.clock.Set(first)
	env.facility.Fire(t, sweepKey)

	next, ok := env.facility.Pending(sweepKey)
	if !ok || !next.Equal(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected next sweep tomorrow, got %v (armed=%t)", next, ok)
	}
	if keys := env.facility.Keys(); len(keys) != 1 {
		t.Fatalf("expected a single timer, got %v", keys)
	}
}

func TestSweepAfterHourArmsTomorrow(t *testing.T) {
	env := newTestEnv(t)
	env.clock.Set(time.Date(2026, 10, 18, 11, 30, 0, 0, time.UTC))
	if err := env.svc.EnsureDailySweep(); err != nil {
		t.Fatalf("arm sweep: %v", err)
	}
	at, _ := env.facility.Pending(sweepKey)
	if !at.Equal(time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected tomorrow 10:00, got %v", at)
	}
}

type failingStore struct {
	TaskStore
}

func (failingStore) ListOverdue(context.Context, time.Time) ([]model.Task, error) {
	return nil, errors.New("disk on fire")
}

func TestSweepQueryFailureStillRearms(t *testing.T) {
	env := newTestEnv(t)
	sweep := NewSweepService(failingStore{env.repo}, env.svc.scheduler, nil, env.clock, time.UTC)

	if _, err := sweep.Run(context.Background(), TriggerTimer); err == nil {
		t.Fatal("expected query error")
	}
	if _, ok := env.facility.Pending(sweepKey); !ok {
		t.Fatal("expected sweep to be re-armed after failure")
	}
}

type fixedGuard struct {
	granted bool
	err     error
	days    []timeutil.Date
}

func (g *fixedGuard) AcquireDay(_ context.Context, day timeutil.Date) (bool, error) {
	g.days = append(g.days, day)
	return g.granted, g.err
}

func TestSweepGuardAppliesToTimerOnly(t *testing.T) {
	env := newTestEnv(t)
	env.insertOverdue(t, "A")
	guard := &fixedGuard{granted: false}
	sweep := NewSweepService(env.repo, env.svc.scheduler, guard, env.clock, time.UTC)
	ctx := context.Background()

	result, err := sweep.Run(ctx, TriggerTimer)
	if err != nil || !result.Skipped {
		t.Fatalf("expected skipped timer sweep, got (%+v, %v)", result, err)
	}
	if len(env.notifier.All()) != 0 {
		t.Fatal("skipped sweep must not notify")
	}
	if len(guard.days) != 1 || guard.days[0] != (timeutil.Date{Year: 2026, Month: time.October, Day: 18}) {
		t.Fatalf("unexpected guard calls %v", guard.days)
	}

	if _, err := sweep.Run(ctx, TriggerManual); err != nil {
		t.Fatalf("manual sweep: %v", err)
	}
	if len(env.notifier.All()) != 1 {
		t.Fatal("manual sweep must bypass the guard")
	}
	if len(guard.days) != 1 {
		t.Fatal("manual sweep must not consult the guard")
	}
}

func TestSweepGuardErrorSweepsAnyway(t *testing.T) {
	env := newTestEnv(t)
	env.insertOverdue(t, "A")
	sweep := NewSweepService(env.repo, env.svc.scheduler, &fixedGuard{err: errors.New("redis down")}, env.clock, time.UTC)

	if _, err := sweep.Run(context.Background(), TriggerTimer); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(env.notifier.All()) != 1 {
		t.Fatal("expected notification despite guard failure")
	}
}
