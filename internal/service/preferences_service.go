package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func ParseTheme(raw string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(raw))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	default:
		return "", validationErrorf("theme", "Unknown theme %q (use light or dark)", raw)
	}
}

// Preferences are the persisted UI settings.
type Preferences struct {
	Theme             Theme `json:"theme"`
	DragEnabled       bool  `json:"dragEnabled"`
	AnimationsEnabled bool  `json:"animationsEnabled"`
}

// DefaultPreferences is used for anything not yet saved.
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeLight, DragEnabled: false, AnimationsEnabled: true}
}

// PreferencesService stores each preference under its own key.
type PreferencesService struct {
	kv  KeyValueStore
	log *logrus.Logger
}

func NewPreferencesService(kv KeyValueStore, log *logrus.Logger) *PreferencesService {
	return &PreferencesService{kv: kv, log: log}
}

// Get reads every preference, substituting defaults for missing or
// unreadable values.
func (s *PreferencesService) Get(ctx context.Context) Preferences {
	prefs := DefaultPreferences()

	var theme string
	if s.read(ctx, KeyTheme, &theme) {
		if parsed, err := ParseTheme(theme); err == nil {
			prefs.Theme = parsed
		}
	}
	s.read(ctx, KeyDragEnabled, &prefs.DragEnabled)
	s.read(ctx, KeyAnimationsEnabled, &prefs.AnimationsEnabled)
	return prefs
}

func (s *PreferencesService) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}
	return s.write(ctx, KeyTheme, theme)
}

func (s *PreferencesService) SetDragEnabled(ctx context.Context, enabled bool) error {
	return s.write(ctx, KeyDragEnabled, enabled)
}

func (s *PreferencesService) SetAnimationsEnabled(ctx context.Context, enabled bool) error {
	return s.write(ctx, KeyAnimationsEnabled, enabled)
}

func (s *PreferencesService) read(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Load(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("failed to load preference")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("ignoring unreadable preference")
		return false
	}
	return true
}

func (s *PreferencesService) write(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Save(ctx, key, raw); err != nil {
		s.log.WithError(err).WithField("key", key).Error("failed to save preference")
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
