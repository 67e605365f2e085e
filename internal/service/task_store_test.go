package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/logger"
	"task-manager/internal/model"
	"task-manager/internal/repository"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)}
}

func newTestStore(t *testing.T) (*TaskStore, *repository.MemoryKV, *clock) {
	t.Helper()
	kv := repository.NewMemoryKV()
	c := newClock()
	store := NewTaskStore(kv, logger.Discard(), c.Now, false)
	require.NoError(t, store.Load(context.Background()))
	return store, kv, c
}

func dayOffset(c *clock, n int) *model.Date {
	d := model.DateOf(c.now).AddDays(n)
	return &d
}

func assertInvariants(t *testing.T, tasks []model.Task) {
	t.Helper()
	for _, task := range tasks {
		assert.Equal(t, task.Completed, task.CompletedAt != nil, "completedAt mismatch on %s", task.ID)
		assert.Equal(t, task.Recurring, task.RecurrencePattern != nil, "pattern mismatch on %s", task.ID)
		assert.True(t, task.Category.IsValid())
		assert.True(t, task.Priority.IsValid())
		assert.NotEmpty(t, task.Title)
	}
}

func TestTaskStore_PayRentOverdueThenToggle(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{
		Title:    "Pay rent",
		Category: model.CategoryFinance,
		Priority: model.PriorityHigh,
		DueDate:  dayOffset(c, -1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Statistics().Overdue)

	toggled, err := store.ToggleCompletion(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	require.NotNil(t, toggled.CompletedAt)
	assert.Equal(t, c.now, *toggled.CompletedAt)
	assert.Equal(t, 0, store.Statistics().Overdue)

	toggled, err = store.ToggleCompletion(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	assert.Nil(t, toggled.CompletedAt)
}

func TestTaskStore_AddDefaultsAndIDs(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	first, err := store.Add(ctx, TaskInput{Title: "  Buy milk  ", Category: model.CategoryShopping, Tags: []string{" dairy ", ""}})
	require.NoError(t, err)
	second, err := store.Add(ctx, TaskInput{Title: "Buy bread", Category: model.CategoryShopping})
	require.NoError(t, err)

	assert.Equal(t, "Buy milk", first.Title)
	assert.Equal(t, model.PriorityMedium, first.Priority)
	assert.Equal(t, []string{"dairy"}, first.Tags)
	assert.Equal(t, c.now, first.CreatedAt)
	assert.Nil(t, first.UpdatedAt)
	assert.Contains(t, first.ID, model.TaskIDPrefix)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.All(), 2)
}

func TestTaskStore_AddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store, kv, c := newTestStore(t)
	before, _, _ := kv.Load(ctx, KeyTasks)

	tests := []struct {
		name  string
		input TaskInput
		field string
	}{
		{name: "blank title", input: TaskInput{Title: "   ", Category: model.CategoryWork}, field: "title"},
		{name: "missing category", input: TaskInput{Title: "x"}, field: "category"},
		{name: "unknown category", input: TaskInput{Title: "x", Category: "chores"}, field: "category"},
		{name: "unknown priority", input: TaskInput{Title: "x", Category: model.CategoryWork, Priority: "urgent"}, field: "priority"},
		{
			name:  "recurring without pattern",
			input: TaskInput{Title: "x", Category: model.CategoryWork, Recurring: true},
			field: "recurrencePattern.type",
		},
		{
			name: "weekly without days",
			input: TaskInput{Title: "x", Category: model.CategoryWork, Recurring: true,
				RecurrencePattern: &model.RecurrencePattern{Type: model.RecurrenceWeekly, EndDate: dayOffset(c, 30)}},
			field: "recurrencePattern.days",
		},
		{
			name: "end date in the past",
			input: TaskInput{Title: "x", Category: model.CategoryWork, Recurring: true,
				RecurrencePattern: &model.RecurrencePattern{Type: model.RecurrenceDaily, EndDate: dayOffset(c, -1)}},
			field: "recurrencePattern.endDate",
		},
		{
			name: "pattern on one-off task",
			input: TaskInput{Title: "x", Category: model.CategoryWork,
				RecurrencePattern: &model.RecurrencePattern{Type: model.RecurrenceDaily, EndDate: dayOffset(c, 3)}},
			field: "recurring",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Add(ctx, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}

	assert.Empty(t, store.All())
	after, _, _ := kv.Load(ctx, KeyTasks)
	assert.Equal(t, before, after)
}

func TestTaskStore_RecurringEndDateTodayIsAccepted(t *testing.T) {
	store, _, c := newTestStore(t)

	task, err := store.Add(context.Background(), TaskInput{
		Title:     "Stretch",
		Category:  model.CategoryHealth,
		Recurring: true,
		RecurrencePattern: &model.RecurrencePattern{
			Type:    model.RecurrenceCustom,
			Days:    []time.Weekday{time.Friday, time.Monday, time.Monday},
			EndDate: dayOffset(c, 0),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, task.RecurrencePattern.Days)
}

func TestTaskStore_UpdateMergesPatch(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{Title: "Draft", Category: model.CategoryWork, DueDate: dayOffset(c, 2), Tags: []string{"a"}})
	require.NoError(t, err)

	c.advance(time.Hour)
	title := "Final draft"
	high := model.PriorityHigh
	updated, err := store.Update(ctx, task.ID, TaskPatch{Title: &title, Priority: &high})
	require.NoError(t, err)

	assert.Equal(t, "Final draft", updated.Title)
	assert.Equal(t, model.PriorityHigh, updated.Priority)
	assert.Equal(t, task.DueDate, updated.DueDate)
	assert.Equal(t, []string{"a"}, updated.Tags)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, c.now, *updated.UpdatedAt)

	updated, err = store.Update(ctx, task.ID, TaskPatch{ClearDueDate: true, Tags: []string{}})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	assert.Empty(t, updated.Tags)
}

func TestTaskStore_UpdateRecurrence(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{Title: "Water plants", Category: model.CategoryPersonal})
	require.NoError(t, err)

	updated, err := store.Update(ctx, task.ID, TaskPatch{
		RecurrencePattern: &model.RecurrencePattern{Type: model.RecurrenceWeekly, Days: []time.Weekday{time.Saturday}, EndDate: dayOffset(c, 60)},
	})
	require.NoError(t, err)
	assert.True(t, updated.Recurring)
	require.NotNil(t, updated.RecurrencePattern)
	assert.Equal(t, model.RecurrenceWeekly, updated.RecurrencePattern.Type)

	off := false
	updated, err = store.Update(ctx, task.ID, TaskPatch{Recurring: &off})
	require.NoError(t, err)
	assert.False(t, updated.Recurring)
	assert.Nil(t, updated.RecurrencePattern)

	on := true
	_, err = store.Update(ctx, task.ID, TaskPatch{Recurring: &on})
	assert.ErrorIs(t, err, ErrValidation)

	assertInvariants(t, store.All())
}

func TestTaskStore_UpdateRejectionLeavesTaskUntouched(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{Title: "Keep me", Category: model.CategoryWork})
	require.NoError(t, err)

	blank := "  "
	high := model.PriorityHigh
	_, err = store.Update(ctx, task.ID, TaskPatch{Priority: &high, Title: &blank})
	require.ErrorIs(t, err, ErrValidation)

	got, ok := store.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, task, got)
}

func TestTaskStore_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	_, err := store.Update(ctx, "task_missing", TaskPatch{})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.ToggleCompletion(ctx, "task_missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.False(t, store.Delete(ctx, "task_missing"))
	_, ok := store.Get("task_missing")
	assert.False(t, ok)
}

func TestTaskStore_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	a, err := store.Add(ctx, TaskInput{Title: "A", Category: model.CategoryWork})
	require.NoError(t, err)
	_, err = store.Add(ctx, TaskInput{Title: "B", Category: model.CategoryWork})
	require.NoError(t, err)

	assert.True(t, store.Delete(ctx, a.ID))
	assert.False(t, store.Delete(ctx, a.ID))
	require.Len(t, store.All(), 1)
	assert.Equal(t, "B", store.All()[0].Title)

	store.Clear(ctx)
	assert.Empty(t, store.All())
	assert.Equal(t, 0, store.Statistics().Total)
}

func TestTaskStore_ReturnedTasksAreCopies(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{Title: "Original", Category: model.CategoryWork, Tags: []string{"x"}})
	require.NoError(t, err)

	all := store.All()
	all[0].Title = "Mutated"
	all[0].Tags[0] = "y"

	got, _ := store.Get(task.ID)
	assert.Equal(t, "Original", got.Title)
	assert.Equal(t, []string{"x"}, got.Tags)
}

func TestTaskStore_Resolve(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{Title: "Find me", Category: model.CategoryWork})
	require.NoError(t, err)

	got, err := store.Resolve(task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	got, err = store.Resolve(task.ShortID())
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = store.Resolve("zzzzzzzz")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.Resolve("")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = store.Add(ctx, TaskInput{Title: "Another", Category: model.CategoryWork})
	require.NoError(t, err)
	_, err = store.Resolve(model.TaskIDPrefix)
	assert.ErrorIs(t, err, ErrAmbiguousID)
}

func TestTaskStore_StatisticsCompletionRate(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	assert.Equal(t, 0, store.Statistics().CompletionRate)

	ids := make([]string, 0, 3)
	for _, title := range []string{"one", "two", "three"} {
		task, err := store.Add(ctx, TaskInput{Title: title, Category: model.CategoryLearning})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	_, err := store.ToggleCompletion(ctx, ids[0])
	require.NoError(t, err)
	stats := store.Statistics()
	assert.Equal(t, 33, stats.CompletionRate)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 3, stats.ByCategory[model.CategoryLearning])
	assert.Equal(t, 3, stats.ByPriority[model.PriorityMedium])

	for _, id := range ids[1:] {
		_, err := store.ToggleCompletion(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, store.Statistics().CompletionRate)
}

func TestTaskStore_FilteredAndSorted(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	add := func(in TaskInput) model.Task {
		task, err := store.Add(ctx, in)
		require.NoError(t, err)
		return task
	}
	late := add(TaskInput{Title: "Late report", Category: model.CategoryWork, Priority: model.PriorityLow, DueDate: dayOffset(c, -2)})
	add(TaskInput{Title: "Someday", Category: model.CategoryPersonal, Priority: model.PriorityHigh})
	add(TaskInput{Title: "Dentist", Description: "Check-up REPORT", Category: model.CategoryHealth, DueDate: dayOffset(c, 1)})
	done := add(TaskInput{Title: "Old work", Category: model.CategoryWork, DueDate: dayOffset(c, -5)})
	_, err := store.ToggleCompletion(ctx, done.ID)
	require.NoError(t, err)

	require.NoError(t, store.SetFilters(model.Filters{Status: model.StatusOverdue}))
	overdue := store.Filtered()
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)

	require.NoError(t, store.SetFilters(model.Filters{Search: "report"}))
	found := store.Filtered()
	require.Len(t, found, 2)
	assert.Equal(t, model.StatusAll, store.Filters().Status)

	require.NoError(t, store.SetFilters(model.Filters{Status: model.StatusActive, Categories: []model.Category{model.CategoryWork}}))
	active := store.Filtered()
	require.Len(t, active, 1)
	assert.Equal(t, late.ID, active[0].ID)

	err = store.SetFilters(model.Filters{Status: "archived"})
	assert.ErrorIs(t, err, ErrValidation)

	byDue := store.Sorted(store.All(), model.SortByDueDate)
	titles := make([]string, 0, len(byDue))
	for _, task := range byDue {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"Old work", "Late report", "Dentist", "Someday"}, titles)

	byPriority := store.Sorted(store.All(), model.SortByPriority)
	assert.Equal(t, "Someday", byPriority[0].Title)
	assert.Equal(t, late.ID, byPriority[len(byPriority)-1].ID)

}

func taskIDs(tasks []model.Task) []string {
	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestTaskStore_SortByCreatedAtAndCategory(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	var ids []string
	for _, in := range []TaskInput{
		{Title: "Buy shoes", Category: model.CategoryShopping},
		{Title: "File taxes", Category: model.CategoryFinance},
		{Title: "Write memo", Category: model.CategoryWork},
		{Title: "Check budget", Category: model.CategoryFinance},
	} {
		task, err := store.Add(ctx, in)
		require.NoError(t, err)
		ids = append(ids, task.ID)
		c.advance(time.Minute)
	}

	byCreated := store.Sorted(store.All(), model.SortByCreatedAt)
	assert.Equal(t, []string{ids[3], ids[2], ids[1], ids[0]}, taskIDs(byCreated))

	// Equal categories keep insertion order.
	byCategory := store.Sorted(store.All(), model.SortByCategory)
	assert.Equal(t, []string{ids[1], ids[3], ids[0], ids[2]}, taskIDs(byCategory))
}

func TestTaskStore_SaveAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, kv, c := newTestStore(t)

	_, err := store.Add(ctx, TaskInput{
		Title:     "Team sync",
		Category:  model.CategoryWork,
		DueDate:   dayOffset(c, 3),
		Tags:      []string{"meeting"},
		Recurring: true,
		RecurrencePattern: &model.RecurrencePattern{
			Type: model.RecurrenceWeekly, Days: []time.Weekday{time.Tuesday}, EndDate: dayOffset(c, 90),
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx))

	raw, ok, err := kv.Load(ctx, KeyLastSaved)
	require.NoError(t, err)
	require.True(t, ok)
	var stamp string
	require.NoError(t, json.Unmarshal(raw, &stamp))
	assert.Equal(t, c.now.Format(time.RFC3339), stamp)

	restored := NewTaskStore(kv, logger.Discard(), c.Now, true)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, store.All(), restored.All())
}

func TestTaskStore_LoadSeedsWhenEmpty(t *testing.T) {
	kv := repository.NewMemoryKV()
	c := newClock()
	store := NewTaskStore(kv, logger.Discard(), c.Now, true)
	require.NoError(t, store.Load(context.Background()))

	tasks := store.All()
	assert.NotEmpty(t, tasks)
	assertInvariants(t, tasks)

	stats := store.Statistics()
	assert.Positive(t, stats.Overdue)
	assert.Positive(t, stats.Recurring)
	assert.Positive(t, stats.Completed)
}

func TestTaskStore_LoadTreatsCorruptDataAsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	require.NoError(t, kv.Save(ctx, KeyTasks, []byte("{not json")))

	store := NewTaskStore(kv, logger.Discard(), newClock().Now, false)
	require.NoError(t, store.Load(ctx))
	assert.Empty(t, store.All())

	seeded := NewTaskStore(kv, logger.Discard(), newClock().Now, true)
	require.NoError(t, seeded.Load(ctx))
	assert.NotEmpty(t, seeded.All())
}

func TestTaskStore_LoadDropsInvalidRecords(t *testing.T) {
	ctx := context.Background()
	kv := repository.NewMemoryKV()
	raw := `[
		{"id":"task_ok","title":"Fine","category":"work","priority":"low","completed":false,"recurring":false,"createdAt":"2026-10-01T00:00:00Z"},
		{"id":"task_bad","title":"Broken","category":"work","priority":"low","completed":true,"recurring":false,"createdAt":"2026-10-01T00:00:00Z"},
		{"id":"task_nodays","title":"Weekly","category":"work","priority":"low","completed":false,"recurring":true,"recurrencePattern":{"type":"weekly","days":[],"endDate":"2027-01-01"},"createdAt":"2026-10-01T00:00:00Z"}
	]`
	require.NoError(t, kv.Save(ctx, KeyTasks, []byte(raw)))

	store := NewTaskStore(kv, logger.Discard(), newClock().Now, false)
	require.NoError(t, store.Load(ctx))
	tasks := store.All()
	require.Len(t, tasks, 1)
	assert.Equal(t, "task_ok", tasks[0].ID)
}

func TestTaskStore_PersistenceFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	store, kv, _ := newTestStore(t)
	kv.FailSaves(errors.New("disk full"))

	task, err := store.Add(ctx, TaskInput{Title: "Still works", Category: model.CategoryWork})
	require.NoError(t, err)
	_, ok := store.Get(task.ID)
	assert.True(t, ok)

	assert.Error(t, store.Save(ctx))

	kv.FailSaves(nil)
	require.NoError(t, store.Save(ctx))
	raw, ok, err := kv.Load(ctx, KeyTasks)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), "Still works")
}

func TestTaskStore_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	_, err := store.Add(ctx, TaskInput{Title: "Existing", Category: model.CategoryWork})
	require.NoError(t, err)

	dup := []model.Task{
		{ID: "task_1", Title: "One", Category: model.CategoryWork, Priority: model.PriorityLow},
		{ID: "task_1", Title: "Two", Category: model.CategoryWork, Priority: model.PriorityLow},
	}
	err = store.ReplaceAll(ctx, dup)
	require.ErrorIs(t, err, ErrValidation)
	require.Len(t, store.All(), 1)
	assert.Equal(t, "Existing", store.All()[0].Title)

	require.NoError(t, store.ReplaceAll(ctx, dup[:1]))
	require.Len(t, store.All(), 1)
	assert.Equal(t, "task_1", store.All()[0].ID)
}

func TestTaskStore_Occurrences(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	weekly, err := store.Add(ctx, TaskInput{
		Title:     "Sunday call",
		Category:  model.CategoryPersonal,
		Recurring: true,
		RecurrencePattern: &model.RecurrencePattern{
			Type: model.RecurrenceWeekly, Days: []time.Weekday{time.Sunday}, EndDate: dayOffset(c, 10),
		},
	})
	require.NoError(t, err)

	dates, err := store.Occurrences(weekly.ID, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(dates), 2)
	for _, d := range dates {
		assert.Equal(t, time.Sunday, d.Weekday())
		assert.False(t, d.After(*dayOffset(c, 10)))
	}

	once, err := store.Add(ctx, TaskInput{Title: "Once", Category: model.CategoryPersonal})
	require.NoError(t, err)
	_, err = store.Occurrences(once.ID, 3)
	assert.ErrorIs(t, err, ErrNotRecurring)
}

func TestTaskStore_RefreshReportsNewlyOverdue(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	task, err := store.Add(ctx, TaskInput{Title: "Renew passport", Category: model.CategoryPersonal, DueDate: dayOffset(c, 0)})
	require.NoError(t, err)

	report := store.Refresh()
	assert.Equal(t, 0, report.Overdue)
	assert.Empty(t, report.NewlyOverdue)

	c.advance(24 * time.Hour)
	report = store.Refresh()
	assert.Equal(t, 1, report.Overdue)
	require.Len(t, report.NewlyOverdue, 1)
	assert.Equal(t, task.ID, report.NewlyOverdue[0].ID)

	report = store.Refresh()
	assert.Equal(t, 1, report.Overdue)
	assert.Empty(t, report.NewlyOverdue)
}

func TestTaskStore_FailedReadKeepsSavedTasks(t *testing.T) {
	ctx := context.Background()
	store, kv, c := newTestStore(t)
	_, err := store.Add(ctx, TaskInput{Title: "Pay rent", Category: model.CategoryFinance, DueDate: dayOffset(c, 2)})
	require.NoError(t, err)

	kv.FailLoads(errors.New("database is locked"))
	broken := NewTaskStore(kv, logger.Discard(), c.Now, true)
	require.Error(t, broken.Load(ctx))
	assert.Empty(t, broken.All())
	assert.ErrorIs(t, broken.Save(ctx), ErrStorageUnread)

	_, err = broken.Add(ctx, TaskInput{Title: "Typed while locked", Category: model.CategoryWork})
	require.NoError(t, err)

	kv.FailLoads(nil)
	reloaded := NewTaskStore(kv, logger.Discard(), c.Now, true)
	require.NoError(t, reloaded.Load(ctx))
	tasks := reloaded.All()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Pay rent", tasks[0].Title)

	require.NoError(t, broken.Load(ctx))
	assert.NoError(t, broken.Save(ctx))
}

func TestTaskStore_ReplaceAllChecksPatternShape(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	recurring := func(p model.RecurrencePattern) []model.Task {
		return []model.Task{{
			ID: "task_r", Title: "Repeat", Category: model.CategoryWork, Priority: model.PriorityLow,
			Recurring: true, RecurrencePattern: &p, CreatedAt: c.now,
		}}
	}

	tests := []struct {
		name    string
		pattern model.RecurrencePattern
		field   string
	}{
		{
			name:    "weekly without days",
			pattern: model.RecurrencePattern{Type: model.RecurrenceWeekly, EndDate: dayOffset(c, 30)},
			field:   "recurrencePattern.days",
		},
		{
			name:    "day outside the week",
			pattern: model.RecurrencePattern{Type: model.RecurrenceCustom, Days: []time.Weekday{1, 7}, EndDate: dayOffset(c, 30)},
			field:   "recurrencePattern.days",
		},
		{
			name:    "missing end date",
			pattern: model.RecurrencePattern{Type: model.RecurrenceDaily},
			field:   "recurrencePattern.endDate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.ReplaceAll(ctx, recurring(tt.pattern))
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, store.All())
		})
	}

	// An end date that has since passed is still a valid stored pattern.
	expired := model.RecurrencePattern{Type: model.RecurrenceMonthly, EndDate: dayOffset(c, -30)}
	require.NoError(t, store.ReplaceAll(ctx, recurring(expired)))
	assert.Len(t, store.All(), 1)
}

func TestTaskStore_RefreshSkipsTasksEnteredOverdue(t *testing.T) {
	ctx := context.Background()
	store, _, c := newTestStore(t)

	_, err := store.Add(ctx, TaskInput{Title: "Backfilled", Category: model.CategoryWork, DueDate: dayOffset(c, -3)})
	require.NoError(t, err)
	report := store.Refresh()
	assert.Equal(t, 1, report.Overdue)
	assert.Empty(t, report.NewlyOverdue)

	moved, err := store.Add(ctx, TaskInput{Title: "Moved", Category: model.CategoryWork, DueDate: dayOffset(c, 5)})
	require.NoError(t, err)
	_, err = store.Update(ctx, moved.ID, TaskPatch{DueDate: dayOffset(c, -1)})
	require.NoError(t, err)
	report = store.Refresh()
	assert.Equal(t, 2, report.Overdue)
	assert.Empty(t, report.NewlyOverdue)

	// Moving it back out and letting it lapse notifies again.
	_, err = store.Update(ctx, moved.ID, TaskPatch{DueDate: dayOffset(c, 0)})
	require.NoError(t, err)
	c.advance(24 * time.Hour)
	report = store.Refresh()
	require.Len(t, report.NewlyOverdue, 1)
	assert.Equal(t, moved.ID, report.NewlyOverdue[0].ID)
}
