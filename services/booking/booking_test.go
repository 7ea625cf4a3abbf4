package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bookingagent/models"
	"bookingagent/services/calendar"
	"bookingagent/services/tasks"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

var (
	fixedNow = time.Date(2025, time.January, 5, 12, 0, 0, 0, time.UTC)
	tenAM    = models.Slot{
		Start: time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, time.January, 6, 11, 0, 0, 0, time.UTC),
	}
)

type recordedReminder struct {
	payload models.ReminderPayload
	start   time.Time
}

type fakeReminders struct {
	got []recordedReminder
	err error
}

func (f *fakeReminders) ScheduleReminder(_ context.Context, p models.ReminderPayload, start time.Time) error {
	f.got = append(f.got, recordedReminder{p, start})
	return f.err
}

type blockingCalendar struct{ calendar.Calendar }

func (blockingCalendar) CommitAppointment(ctx context.Context, _ models.Appointment) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestFinalizer(cal calendar.Calendar, prefs PreferenceStore) *Finalizer {
	f := NewFinalizer(cal, prefs, time.Second, nil)
	f.Now = func() time.Time { return fixedNow }
	f.NewID = func() string { return "appt-1" }
	return f
}

func TestFinalizerCommit(t *testing.T) {
	cal := calendar.NewMockCalendar()
	prefs := NewShardedPreferenceStore()
	reminders := &fakeReminders{}
	f := newTestFinalizer(cal, prefs)
	f.Reminders = reminders

	receipt, err := f.Commit(context.Background(), tenAM, "call", 60, "Dana")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	want := models.Receipt{
		AppointmentID: "appt-1",
		Slot:          tenAM,
		Title:         "Call - Dana",
		Description:   "60-minute call booked via scheduling assistant",
		MeetingType:   "call",
		Duration:      60,
		UserName:      "Dana",
		BookedAt:      fixedNow,
	}
	if receipt != want {
		t.Fatalf("receipt = %+v, want %+v", receipt, want)
	}

	committed := cal.Committed()
	if len(committed) != 1 || committed[0].Title != "Call - Dana" || !committed[0].Start.Equal(tenAM.Start) {
		t.Fatalf("committed = %+v", committed)
	}

	summary, ok, _ := prefs.Get(context.Background(), "dana")
	if !ok || summary.PreferredDuration != 60 || summary.PreferredMeetingType != "call" || !summary.LastBooking.Equal(fixedNow) {
		t.Fatalf("preferences = %+v, %v", summary, ok)
	}

	if len(reminders.got) != 1 || reminders.got[0].payload.AppointmentID != "appt-1" || !reminders.got[0].start.Equal(tenAM.Start) {
		t.Fatalf("reminders = %+v", reminders.got)
	}
}

func TestFinalizerAnonymous(t *testing.T) {
	prefs := NewShardedPreferenceStore()
	f := newTestFinalizer(calendar.NewMockCalendar(), prefs)

	receipt, err := f.Commit(context.Background(), tenAM, "", 0, "")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if receipt.Title != "Scheduled meeting" {
		t.Fatalf("title = %q", receipt.Title)
	}
	if receipt.Duration != 60 {
		t.Fatalf("duration = %d, want slot length", receipt.Duration)
	}
	if _, ok, _ := prefs.Get(context.Background(), "anonymous"); !ok {
		t.Fatal("anonymous preferences not stored")
	}
}

func TestFinalizerCommitFailure(t *testing.T) {
	boom := errors.New("calendar down")
	cal := calendar.NewMockCalendar()
	cal.SetFailures(nil, boom)
	prefs := NewShardedPreferenceStore()
	reminders := &fakeReminders{}
	f := newTestFinalizer(cal, prefs)
	f.Reminders = reminders

	_, err := f.Commit(context.Background(), tenAM, "call", 60, "Dana")
	var ce *CommitError
	if !errors.As(err, &ce) || !ce.Retryable {
		t.Fatalf("err = %v, want retryable *CommitError", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err does not wrap cause: %v", err)
	}
	if _, ok, _ := prefs.Get(context.Background(), "dana"); ok {
		t.Fatal("preferences stored for a failed commit")
	}
	if len(reminders.got) != 0 {
		t.Fatal("reminder scheduled for a failed commit")
	}
}

func TestFinalizerRejectsReversedSlot(t *testing.T) {
	tests := []struct {
		name string
		slot models.Slot
	}{
		{"end before start", models.Slot{Start: tenAM.End, End: tenAM.Start}},
		{"empty slot", models.Slot{Start: tenAM.Start, End: tenAM.Start}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := calendar.NewMockCalendar()
			f := newTestFinalizer(cal, NewShardedPreferenceStore())

			_, err := f.Commit(context.Background(), tt.slot, "call", 0, "Dana")
			var ce *CommitError
			if !errors.As(err, &ce) || ce.Retryable || ce.Code != "invalidSlot" {
				t.Fatalf("err = %v, want non-retryable invalidSlot", err)
			}
			if len(cal.Committed()) != 0 {
				t.Fatal("reversed slot reached the calendar")
			}
		})
	}
}

func TestFinalizerCommitTimeout(t *testing.T) {
	f := newTestFinalizer(blockingCalendar{}, nil)
	f.Timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := f.Commit(context.Background(), tenAM, "call", 60, "")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Commit took %v", elapsed)
	}
	var ce *CommitError
	if !errors.As(err, &ce) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want CommitError wrapping deadline", err)
	}
}

func TestFinalizerFollowUpFailuresDoNotFailCommit(t *testing.T) {
	f := newTestFinalizer(calendar.NewMockCalendar(), failingPrefs{})
	f.Reminders = &fakeReminders{err: errors.New("queue down")}
	if _, err := f.Commit(context.Background(), tenAM, "demo", 30, "Sam"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
}

type failingPrefs struct{}

func (failingPrefs) Get(context.Context, string) (models.PreferenceSummary, bool, error) {
	return models.PreferenceSummary{}, false, errors.New("down")
}

func (failingPrefs) Upsert(context.Context, models.PreferenceSummary) error {
	return errors.New("down")
}

func TestTitleAndDescription(t *testing.T) {
	tests := []struct {
		meetingType, name, wantTitle string
	}{
		{"call", "Dana", "Call - Dana"},
		{"consultation", "", "Scheduled consultation"},
		{"meeting", "Jo", "Meeting - Jo"},
	}
	for _, tt := range tests {
		if got := Title(tt.meetingType, tt.name); got != tt.wantTitle {
			t.Errorf("Title(%q, %q) = %q, want %q", tt.meetingType, tt.name, got, tt.wantTitle)
		}
	}
	if got := Description("demo", 45); got != "45-minute demo booked via scheduling assistant" {
		t.Errorf("Description = %q", got)
	}
}

func TestPreferenceKey(t *testing.T) {
	if got := PreferenceKey("  Dana "); got != "dana" {
		t.Errorf("PreferenceKey = %q", got)
	}
	if got := PreferenceKey(""); got != "anonymous" {
		t.Errorf("PreferenceKey(empty) = %q", got)
	}
}

func TestShardedPreferenceStoreConcurrent(t *testing.T) {
	store := NewShardedPreferenceStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("user-%d", i%10)
			_ = store.Upsert(ctx, models.PreferenceSummary{Key: key, PreferredDuration: 30 + i})
			_, _, _ = store.Get(ctx, key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		if _, ok, _ := store.Get(ctx, fmt.Sprintf("user-%d", i)); !ok {
			t.Fatalf("user-%d missing", i)
		}
	}
	if err := store.Upsert(ctx, models.PreferenceSummary{}); err == nil {
		t.Fatal("Upsert without key succeeded")
	}
}

func TestMongoPreferenceStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get found", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "key", Value: "dana"},
			{Key: "preferred_duration", Value: 30},
			{Key: "preferred_meeting_type", Value: "call"},
		}))
		store := &MongoPreferenceStore{coll: mt.Coll}
		got, ok, err := store.Get(context.Background(), "dana")
		if err != nil || !ok {
			t.Fatalf("Get = %v, %v", ok, err)
		}
		if got.PreferredDuration != 30 || got.PreferredMeetingType != "call" {
			t.Fatalf("Get = %+v", got)
		}
	})

	mt.Run("get missing", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		store := &MongoPreferenceStore{coll: mt.Coll}
		_, ok, err := store.Get(context.Background(), "nobody")
		if err != nil || ok {
			t.Fatalf("Get = %v, %v; want not found", ok, err)
		}
	})

	mt.Run("upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
		))
		store := &MongoPreferenceStore{coll: mt.Coll}
		if err := store.Upsert(context.Background(), models.PreferenceSummary{Key: "dana", PreferredDuration: 45}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	})
}

type fakeEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.task, f.opts = task, opts
	return &asynq.TaskInfo{}, nil
}

func TestAsynqReminderScheduler(t *testing.T) {
	enq := &fakeEnqueuer{}
	s := NewAsynqReminderScheduler(enq, 15*time.Minute)

	payload := models.ReminderPayload{AppointmentID: "appt-9", Title: "Call - Dana", Start: tenAM.Start}
	if err := s.ScheduleReminder(context.Background(), payload, tenAM.Start); err != nil {
		t.Fatalf("ScheduleReminder: %v", err)
	}
	if enq.task == nil || enq.task.Type() != tasks.TypeSendReminder {
		t.Fatalf("task = %+v", enq.task)
	}
	got, err := tasks.ParseReminderTask(enq.task)
	if err != nil || got.AppointmentID != "appt-9" {
		t.Fatalf("payload = %+v, %v", got, err)
	}
	if len(enq.opts) == 0 {
		t.Fatal("no scheduling options passed")
	}
}
