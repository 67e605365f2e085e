package service

import (
	"time"

	"github.com/google/uuid"

	"task-manager/internal/model"
)

type seedTask struct {
	title       string
	description string
	category    model.Category
	priority    model.Priority
	dueIn       *int
	tags        []string
	completed   bool
	pattern     *model.RecurrencePattern
}

func days(n int) *int {
	return &n
}

// SeedTasks returns the example dataset shown on a first run. Dates are
// relative to now so the examples always include overdue, due-soon and
// recurring tasks.
func SeedTasks(now time.Time) []model.Task {
	today := model.DateOf(now)
	yearOut := today.AddDays(365)
	weekly := func(d ...time.Weekday) *model.RecurrencePattern {
		return &model.RecurrencePattern{Type: model.RecurrenceWeekly, Days: d, EndDate: &yearOut}
	}
	daily := &model.RecurrencePattern{Type: model.RecurrenceDaily, EndDate: &yearOut}
	monthly := &model.RecurrencePattern{Type: model.RecurrenceMonthly, EndDate: &yearOut}

	examples := []seedTask{
		{title: "Complete Q4 Project Proposal", description: "Prepare comprehensive project proposal with timeline and budget", category: model.CategoryWork, priority: model.PriorityHigh, dueIn: days(1), tags: []string{"urgent", "important"}},
		{title: "Review Team Code Submissions", description: "Code review for sprint submissions", category: model.CategoryWork, priority: model.PriorityMedium, dueIn: days(7), tags: []string{"review"}},
		{title: "Update Project Documentation", description: "Update API documentation and tech specs", category: model.CategoryWork, priority: model.PriorityLow, dueIn: days(3), tags: []string{"documentation"}, completed: true},
		{title: "Weekly Team Standup", description: "Prepare weekly status update", category: model.CategoryWork, priority: model.PriorityMedium, tags: []string{"recurring", "meeting"}, pattern: weekly(time.Monday, time.Wednesday, time.Friday)},
		{title: "Plan Weekend Trip", description: "Research destinations and book accommodations", category: model.CategoryPersonal, priority: model.PriorityMedium, dueIn: days(4), tags: []string{"travel", "planning"}},
		{title: "Call Mom", description: "Weekly family call", category: model.CategoryPersonal, priority: model.PriorityLow, dueIn: days(5), pattern: weekly(time.Sunday)},
		{title: "Organize Home Office", description: "Declutter and organize desk area", category: model.CategoryPersonal, priority: model.PriorityLow, dueIn: days(-1)},
		{title: "Gym Session - Leg Day", description: "Complete leg workout routine", category: model.CategoryHealth, priority: model.PriorityMedium, dueIn: days(1), tags: []string{"fitness", "exercise"}, pattern: weekly(time.Monday, time.Wednesday, time.Friday)},
		{title: "Drink 8 Glasses of Water", description: "Daily hydration reminder", category: model.CategoryHealth, priority: model.PriorityLow, dueIn: days(0), tags: []string{"daily", "wellness"}, completed: true, pattern: daily},
		{title: "Grocery Shopping", description: "Buy weekly groceries - milk, eggs, vegetables, bread", category: model.CategoryShopping, priority: model.PriorityMedium, dueIn: days(1), tags: []string{"groceries", "weekly"}, pattern: weekly(time.Saturday)},
		{title: "Book Holiday Gifts", description: "Order gifts for family members", category: model.CategoryShopping, priority: model.PriorityHigh, dueIn: days(-1), tags: []string{"gifts", "holiday"}},
		{title: "Pay Monthly Bills", description: "Electricity, water, internet, and mortgage", category: model.CategoryFinance, priority: model.PriorityHigh, dueIn: days(3), tags: []string{"bills", "monthly"}, pattern: monthly},
		{title: "Review Investment Portfolio", description: "Quarterly review of stocks and bonds", category: model.CategoryFinance, priority: model.PriorityMedium, dueIn: days(8), tags: []string{"investments", "quarterly"}, completed: true},
		{title: "Complete Python Course Module 5", description: "Finish Python advanced functions module", category: model.CategoryLearning, priority: model.PriorityMedium, dueIn: days(2), tags: []string{"learning", "python"}},
		{title: "Daily Coding Practice", description: "Solve algorithmic challenges", category: model.CategoryLearning, priority: model.PriorityMedium, dueIn: days(0), tags: []string{"daily", "coding", "practice"}, completed: true, pattern: daily},
	}

	tasks := make([]model.Task, 0, len(examples))
	for _, ex := range examples {
		task := model.Task{
			ID:          model.TaskIDPrefix + uuid.NewString(),
			Title:       ex.title,
			Description: ex.description,
			Category:    ex.category,
			Priority:    ex.priority,
			Tags:        append([]string{}, ex.tags...),
			Completed:   ex.completed,
			CreatedAt:   now,
		}
		if ex.dueIn != nil {
			due := today.AddDays(*ex.dueIn)
			task.DueDate = &due
		}
		if ex.completed {
			completedAt := now
			task.CompletedAt = &completedAt
		}
		if ex.pattern != nil {
			p := ex.pattern.Clone()
			task.Recurring = true
			task.RecurrencePattern = &p
		}
		tasks = append(tasks, task)
	}
	return tasks
}
