package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"task-manager/internal/model"
)

// ExportData is the portable snapshot of tasks and settings.
type ExportData struct {
	Tasks      []model.Task  `json:"tasks"`
	Filters    model.Filters `json:"filters"`
	Theme      Theme         `json:"theme"`
	ExportedAt time.Time     `json:"exportedAt"`
}

// ExportService moves whole snapshots in and out of the task store.
type ExportService struct {
	store *TaskStore
	prefs *PreferencesService
	now   func() time.Time
}

func NewExportService(store *TaskStore, prefs *PreferencesService, now func() time.Time) *ExportService {
	if now == nil {
		now = time.Now
	}
	return &ExportService{store: store, prefs: prefs, now: now}
}

// Export captures the current tasks, filters and theme.
func (s *ExportService) Export(ctx context.Context) ExportData {
	return ExportData{
		Tasks:      s.store.All(),
		Filters:    s.store.Filters(),
		Theme:      s.prefs.Get(ctx).Theme,
		ExportedAt: s.now().UTC(),
	}
}

// ExportJSON renders Export as indented JSON.
func (s *ExportService) ExportJSON(ctx context.Context) ([]byte, error) {
	raw, err := json.MarshalIndent(s.Export(ctx), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return raw, nil
}

// Import applies a snapshot produced by ExportJSON. The payload is fully
// checked first; a rejected payload changes nothing. Absent sections are
// left alone. The theme is applied last and a failure to save it is only
// logged, so the returned error always means the tasks were not replaced.
func (s *ExportService) Import(ctx context.Context, raw []byte) (int, error) {
	var payload struct {
		Tasks   *[]model.Task  `json:"tasks"`
		Filters *model.Filters `json:"filters"`
		Theme   string         `json:"theme"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, &ValidationError{Field: "payload", Message: fmt.Sprintf("Import file is not valid: %v", err), Err: err}
	}

	var theme Theme
	if payload.Theme != "" {
		parsed, err := ParseTheme(payload.Theme)
		if err != nil {
			return 0, err
		}
		theme = parsed
	}
	if payload.Filters != nil {
		if err := validateFilters(*payload.Filters); err != nil {
			return 0, err
		}
	}

	count := 0
	if payload.Tasks != nil {
		if err := s.store.ReplaceAll(ctx, *payload.Tasks); err != nil {
			return 0, err
		}
		count = len(*payload.Tasks)
	}
	if payload.Filters != nil {
		if err := s.store.SetFilters(*payload.Filters); err != nil {
			return count, err
		}
	}
	if theme != "" {
		if err := s.prefs.SetTheme(ctx, theme); err != nil {
			s.store.log.WithError(err).WithField("theme", theme).Warn("imported tasks but could not save theme")
		}
	}
	return count, nil
}
