package model

// Statistics summarises the full, unfiltered task collection.
type Statistics struct {
	Total          int              `json:"total"`
	Completed      int              `json:"completed"`
	Active         int              `json:"active"`
	Overdue        int              `json:"overdue"`
	Recurring      int              `json:"recurring"`
	CompletionRate int              `json:"completionRate"`
	ByCategory     map[Category]int `json:"byCategory"`
	ByPriority     map[Priority]int `json:"byPriority"`
}
