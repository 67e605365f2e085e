package service

import (
	"math"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"task-manager/internal/model"
	"task-manager/internal/recurrence"
)

// SetFilters replaces the current filter state after validating it.
func (s *TaskStore) SetFilters(filters model.Filters) error {
	if filters.Status == "" {
		filters.Status = model.StatusAll
	}
	if err := validateFilters(filters); err != nil {
		return err
	}
	filters.Search = strings.TrimSpace(filters.Search)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters.Clone()
	return nil
}

func validateFilters(filters model.Filters) error {
	if filters.Status != "" && !filters.Status.IsValid() {
		return validationErrorf("status", "Unknown status %q", filters.Status)
	}
	for _, c := range filters.Categories {
		if !c.IsValid() {
			return validationErrorf("category", "Unknown category %q", c)
		}
	}
	return nil
}

// Filters returns the current filter state.
func (s *TaskStore) Filters() model.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.Clone()
}

// Filtered applies the current filters to the collection.
func (s *TaskStore) Filtered() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FilterTasks(s.tasks, s.filters, s.today())
}

// Sorted returns tasks ordered by key.
func (s *TaskStore) Sorted(tasks []model.Task, key model.SortKey) []model.Task {
	return SortTasks(tasks, key)
}

// Statistics summarises the whole collection, ignoring filters.
func (s *TaskStore) Statistics() model.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ComputeStatistics(s.tasks, s.today())
}

// FilterTasks keeps tasks passing the status filter, then the category set,
// then the case-insensitive search over title and description.
func FilterTasks(tasks []model.Task, filters model.Filters, today model.Date) []model.Task {
	search := strings.ToLower(strings.TrimSpace(filters.Search))

	out := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !matchesStatus(task, filters.Status, today) {
			continue
		}
		if len(filters.Categories) > 0 && !slices.Contains(filters.Categories, task.Category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(task.Title), search) &&
			!strings.Contains(strings.ToLower(task.Description), search) {
			continue
		}
		out = append(out, task.Clone())
	}
	return out
}

func matchesStatus(task model.Task, status model.Status, today model.Date) bool {
	switch status {
	case model.StatusActive:
		return !task.Completed
	case model.StatusCompleted:
		return task.Completed
	case model.StatusOverdue:
		return isOverdue(task, today)
	default:
		return true
	}
}

func isOverdue(task model.Task, today model.Date) bool {
	return !task.Completed && task.HasDueDate() && recurrence.IsOverdue(task.DueDate, today)
}

// SortTasks returns a stably sorted copy of tasks.
func SortTasks(tasks []model.Task, key model.SortKey) []model.Task {
	sorted := cloneTasks(tasks)

	switch key {
	case model.SortByDueDate:
		slices.SortStableFunc(sorted, func(a, b model.Task) int {
			switch {
			case !a.HasDueDate() && !b.HasDueDate():
				return 0
			case !a.HasDueDate():
				return 1
			case !b.HasDueDate():
				return -1
			default:
				return a.DueDate.Compare(*b.DueDate)
			}
		})
	case model.SortByPriority:
		slices.SortStableFunc(sorted, func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	case model.SortByCategory:
		slices.SortStableFunc(sorted, func(a, b model.Task) int {
			return strings.Compare(string(a.Category), string(b.Category))
		})
	case model.SortByCreatedAt:
		slices.SortStableFunc(sorted, func(a, b model.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	return sorted
}

// ComputeStatistics counts tasks by state, category and priority.
func ComputeStatistics(tasks []model.Task, today model.Date) model.Statistics {
	stats := model.Statistics{
		Total:      len(tasks),
		ByCategory: make(map[model.Category]int),
		ByPriority: make(map[model.Priority]int),
	}

	for _, task := range tasks {
		if task.Completed {
			stats.Completed++
		}
		if isOverdue(task, today) {
			stats.Overdue++
		}
		if task.Recurring {
			stats.Recurring++
		}
		stats.ByCategory[task.Category]++
		stats.ByPriority[task.Priority]++
	}
	stats.Active = stats.Total - stats.Completed

	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}

// RefreshReport is the outcome of a periodic due-date re-evaluation.
type RefreshReport struct {
	Today        model.Date
	Overdue      int
	NewlyOverdue []model.Task
}

// Refresh re-evaluates overdue status against the current date. Tasks stay
// the same, but the date moves on, so tasks can become overdue over time.
func (s *TaskStore) Refresh() RefreshReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	current := overdueSet(s.tasks, today)
	report := RefreshReport{Today: today, Overdue: len(current)}
	for _, task := range s.tasks {
		if current[task.ID] && !s.overdue[task.ID] {
			report.NewlyOverdue = append(report.NewlyOverdue, task.Clone())
		}
	}
	s.overdue = current

	if len(report.NewlyOverdue) > 0 {
		s.log.WithFields(logrus.Fields{
			"overdue":       report.Overdue,
			"newly_overdue": len(report.NewlyOverdue),
		}).Info("tasks became overdue")
	}
	return report
}

func overdueSet(tasks []model.Task, today model.Date) map[string]bool {
	set := make(map[string]bool)
	for _, task := range tasks {
		if isOverdue(task, today) {
			set[task.ID] = true
		}
	}
	return set
}
