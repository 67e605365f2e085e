package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
)

// Storage keys. Values are JSON documents.
const (
	KeyTasks             = "tasks"
	KeyLastSaved         = "lastSaved"
	KeyFilters           = "filters"
	KeyTheme             = "theme"
	KeyDragEnabled       = "dragEnabled"
	KeyAnimationsEnabled = "animationsEnabled"
)

// KeyValueStore is the persistence collaborator: a synchronous blob store.
type KeyValueStore interface {
	Save(ctx context.Context, key string, value []byte) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Remove(ctx context.Context, key string) error
}

// TaskStore owns the task collection and the current filters. It is the only
// writer of persisted task data; every mutation is saved before it returns.
type TaskStore struct {
	mu      sync.RWMutex
	kv      KeyValueStore
	log     *logrus.Logger
	now     func() time.Time
	seed    bool
	tasks   []model.Task
	filters model.Filters
	overdue map[string]bool

	// unreadable is set when the last Load could not read storage. Saves
	// are refused until a Load succeeds so the stored tasks survive.
	unreadable bool
}

// NewTaskStore builds an empty store. Call Load to restore saved tasks.
// A nil now uses time.Now.
func NewTaskStore(kv KeyValueStore, log *logrus.Logger, now func() time.Time, seedExamples bool) *TaskStore {
	if now == nil {
		now = time.Now
	}
	return &TaskStore{
		kv:      kv,
		log:     log,
		now:     now,
		seed:    seedExamples,
		filters: model.DefaultFilters(),
		overdue: make(map[string]bool),
	}
}

func (s *TaskStore) today() model.Date {
	return model.DateOf(s.now())
}

// Today returns the store's current calendar date.
func (s *TaskStore) Today() model.Date {
	return s.today()
}

// Load restores the saved collection. Missing or undecodable data is treated
// as "nothing saved": the store then starts empty or with example tasks.
// When storage cannot be read at all the store stays empty, nothing is seeded
// and Save refuses to write until a later Load succeeds.
func (s *TaskStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.readTasks(ctx)
	if err != nil {
		s.tasks = nil
		s.overdue = make(map[string]bool)
		s.unreadable = true
		return err
	}
	s.unreadable = false

	if len(tasks) == 0 && s.seed {
		tasks = SeedTasks(s.now())
		s.log.WithField("count", len(tasks)).Info("seeded example tasks")
	}
	s.tasks = tasks
	s.overdue = overdueSet(s.tasks, s.today())
	s.persist(ctx)
	return nil
}

func (s *TaskStore) readTasks(ctx context.Context) ([]model.Task, error) {
	raw, ok, err := s.kv.Load(ctx, KeyTasks)
	if err != nil {
		s.log.WithError(err).Error("failed to load tasks")
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var stored []model.Task
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.WithError(err).Warn("saved tasks are unreadable; starting fresh")
		return nil, nil
	}

	tasks := make([]model.Task, 0, len(stored))
	for _, task := range stored {
		if err := checkStoredTask(task); err != nil {
			s.log.WithError(err).WithField("task_id", task.ID).Warn("dropping invalid saved task")
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Save writes the full collection. The autosave job calls it; mutations
// save on their own.
func (s *TaskStore) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.save(ctx)
}

func (s *TaskStore) save(ctx context.Context) error {
	if s.unreadable {
		return ErrStorageUnread
	}
	tasks := s.tasks
	if tasks == nil {
		tasks = []model.Task{}
	}
	raw, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Save(ctx, KeyTasks, raw); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	stamp, _ := json.Marshal(s.now().UTC().Format(time.RFC3339))
	if err := s.kv.Save(ctx, KeyLastSaved, stamp); err != nil {
		return fmt.Errorf("save timestamp: %w", err)
	}
	return nil
}

// persist saves after a mutation. Failures are logged and swallowed: the
// in-memory state stays authoritative for the session.
func (s *TaskStore) persist(ctx context.Context) {
	if err := s.save(ctx); err != nil {
		s.log.WithError(err).Error("failed to persist tasks")
	}
}

// Add validates the input and appends a new task.
func (s *TaskStore) Add(ctx context.Context, input TaskInput) (model.Task, error) {
	input = input.normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateInput(input, s.today()); err != nil {
		return model.Task{}, err
	}

	task := model.Task{
		ID:                model.TaskIDPrefix + uuid.NewString(),
		Title:             input.Title,
		Description:       input.Description,
		Category:          input.Category,
		Priority:          input.Priority,
		DueDate:           input.DueDate,
		Tags:              input.Tags,
		Recurring:         input.Recurring,
		RecurrencePattern: input.RecurrencePattern,
		CreatedAt:         s.now(),
	}
	s.tasks = append(s.tasks, task)
	s.trackOverdue(task)
	s.persist(ctx)

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "category": task.Category}).Info("task added")
	return task.Clone(), nil
}

// Update merges patch into the task. It returns ErrTaskNotFound for unknown
// ids and a *ValidationError, with nothing changed, for rejected values.
func (s *TaskStore) Update(ctx context.Context, id string, patch TaskPatch) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, func(model.Task) TaskPatch { return patch })
}

// ToggleCompletion flips the completed flag, stamping or clearing completedAt.
func (s *TaskStore) ToggleCompletion(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(ctx, id, func(cur model.Task) TaskPatch {
		completed := !cur.Completed
		return TaskPatch{Completed: &completed}
	})
}

func (s *TaskStore) updateLocked(ctx context.Context, id string, derive func(model.Task) TaskPatch) (model.Task, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	current := s.tasks[idx]
	updated, err := applyPatch(current.Clone(), derive(current), s.now())
	if err != nil {
		return model.Task{}, err
	}
	s.tasks[idx] = updated
	s.trackOverdue(updated)
	s.persist(ctx)

	s.log.WithField("task_id", id).Debug("task updated")
	return updated.Clone(), nil
}

func applyPatch(task model.Task, patch TaskPatch, now time.Time) (model.Task, error) {
	today := model.DateOf(now)

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := checkField("title", title, "required,max=500"); err != nil {
			return task, err
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		if err := checkField("category", string(*patch.Category), "required,category"); err != nil {
			return task, err
		}
		task.Category = *patch.Category
	}
	if patch.Priority != nil {
		if err := checkField("priority", string(*patch.Priority), "required,priority"); err != nil {
			return task, err
		}
		task.Priority = *patch.Priority
	}
	switch {
	case patch.ClearDueDate:
		task.DueDate = nil
	case patch.DueDate != nil && !patch.DueDate.IsZero():
		due := *patch.DueDate
		task.DueDate = &due
	}
	if patch.Tags != nil {
		tags := normalizeTags(patch.Tags)
		if err := checkField("tags", tags, "dive,max=64"); err != nil {
			return task, err
		}
		task.Tags = tags
	}

	if patch.Recurring != nil || patch.RecurrencePattern != nil {
		recurring := task.Recurring || patch.RecurrencePattern != nil
		if patch.Recurring != nil {
			recurring = *patch.Recurring
		}
		pattern := task.RecurrencePattern
		if patch.RecurrencePattern != nil {
			p := recurrence.CreatePattern(patch.RecurrencePattern.Type, patch.RecurrencePattern.Days, patch.RecurrencePattern.EndDate)
			if err := validateRecurrence(recurring, &p, today); err != nil {
				return task, err
			}
			pattern = &p
		}
		if !recurring {
			pattern = nil
		} else if pattern == nil {
			return task, validateRecurrence(true, nil, today)
		}
		task.Recurring = recurring
		task.RecurrencePattern = pattern
	}

	if patch.Completed != nil && *patch.Completed != task.Completed {
		task.Completed = *patch.Completed
		if task.Completed {
			at := now
			task.CompletedAt = &at
		} else {
			task.CompletedAt = nil
		}
	}

	updatedAt := now
	task.UpdatedAt = &updatedAt
	return task, nil
}

// Delete removes the task and reports whether it existed.
func (s *TaskStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	delete(s.overdue, id)
	s.persist(ctx)

	s.log.WithField("task_id", id).Info("task deleted")
	return true
}

// Clear removes every task.
func (s *TaskStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.overdue = make(map[string]bool)
	s.persist(ctx)
}

// ReplaceAll swaps in a new collection after checking every task.
func (s *TaskStore) ReplaceAll(ctx context.Context, tasks []model.Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if err := checkStoredTask(task); err != nil {
			return fmt.Errorf("task %q: %w", task.ID, err)
		}
		if seen[task.ID] {
			return validationErrorf("id", "Duplicate task id %q", task.ID)
		}
		seen[task.ID] = true
	}

	cloned := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		cloned = append(cloned, task.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloned
	s.overdue = overdueSet(s.tasks, s.today())
	s.persist(ctx)
	return nil
}

// Get returns the task with exactly this id.
func (s *TaskStore) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Task{}, false
	}
	return s.tasks[idx].Clone(), true
}

// Resolve finds a task by full id or by a unique prefix of its id, with or
// without the "task_" prefix.
func (s *TaskStore) Resolve(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("%w: empty id", ErrTaskNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(ref); idx >= 0 {
		return s.tasks[idx].Clone(), nil
	}

	var matches []int
	for i, task := range s.tasks {
		if strings.HasPrefix(task.ID, ref) || strings.HasPrefix(strings.TrimPrefix(task.ID, model.TaskIDPrefix), ref) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return s.tasks[matches[0]].Clone(), nil
	default:
		return model.Task{}, fmt.Errorf("%w: %s matches %d tasks", ErrAmbiguousID, ref, len(matches))
	}
}

// All returns every task in insertion order.
func (s *TaskStore) All() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Occurrences previews the next count occurrences of a recurring task,
// starting from its due date, or today when it has none.
func (s *TaskStore) Occurrences(id string, count int) ([]model.Date, error) {
	task, err := s.Resolve(id)
	if err != nil {
		return nil, err
	}
	if !task.Recurring || task.RecurrencePattern == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRecurring, task.ID)
	}
	start := s.today()
	if task.HasDueDate() {
		start = *task.DueDate
	}
	return recurrence.Preview(*task.RecurrencePattern, start, count), nil
}

// trackOverdue records the overdue state of a task the user just wrote, so
// Refresh only reports tasks that became overdue as the date moved on.
func (s *TaskStore) trackOverdue(task model.Task) {
	if isOverdue(task, s.today()) {
		s.overdue[task.ID] = true
	} else {
		delete(s.overdue, task.ID)
	}
}

func (s *TaskStore) indexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

func cloneTasks(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Clone())
	}
	return out
}

// checkStoredTask verifies a record read from storage or an import.
func checkStoredTask(task model.Task) error {
	switch {
	case strings.TrimSpace(task.ID) == "":
		return validationErrorf("id", "Task id is required")
	case strings.TrimSpace(task.Title) == "":
		return validationErrorf("title", "Please enter a task title")
	case !task.Category.IsValid():
		return validationErrorf("category", "Unknown category %q", task.Category)
	case !task.Priority.IsValid():
		return validationErrorf("priority", "Unknown priority %q", task.Priority)
	case task.Completed != (task.CompletedAt != nil):
		return validationErrorf("completedAt", "completedAt must be set exactly when the task is completed")
	case task.Recurring != (task.RecurrencePattern != nil):
		return validationErrorf("recurrencePattern", "recurrencePattern must be set exactly when the task is recurring")
	}
	if task.RecurrencePattern != nil {
		if err := recurrence.ValidateShape(task.RecurrencePattern); err != nil {
			return patternError(err)
		}
	}
	return nil
}
