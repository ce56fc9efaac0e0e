package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Valid preference values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	ViewDashboard = "dashboard"
	ViewReport    = "report"
	ViewCalendar  = "calendar"
)

// Preferences are the UI settings that survive restarts: the color theme
// and which view opens first.
type Preferences struct {
	Theme       string `json:"theme"`
	DefaultView string `json:"default_view"`
}

func defaults() Preferences {
	return Preferences{
		Theme:       ThemeLight,
		DefaultView: ViewDashboard,
	}
}

func validTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

func validView(view string) bool {
	return view == ViewDashboard || view == ViewReport || view == ViewCalendar
}

// Store persists preferences in a JSON file. Reads are served from
// memory; every change is written through immediately.
type Store struct {
	mu    sync.Mutex
	path  string
	prefs Preferences
}

// NewStore loads preferences from path, falling back to defaults when the
// file does not exist yet. A corrupt file is an error; it is never
// silently overwritten.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, prefs: defaults()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}

	var loaded Preferences
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse preferences %s: %w", path, err)
	}
	if validTheme(loaded.Theme) {
		s.prefs.Theme = loaded.Theme
	}
	if validView(loaded.DefaultView) {
		s.prefs.DefaultView = loaded.DefaultView
	}
	return s, nil
}

// Get returns the current preferences.
func (s *Store) Get() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetTheme updates the theme and persists it.
func (s *Store) SetTheme(theme string) error {
	if !validTheme(theme) {
		return fmt.Errorf("invalid theme %q", theme)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Theme = theme
	return s.save()
}

// SetDefaultView updates the startup view and persists it.
func (s *Store) SetDefaultView(view string) error {
	if !validView(view) {
		return fmt.Errorf("invalid view %q", view)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.DefaultView = view
	return s.save()
}

// save writes via a temp file and rename so a crash never leaves a
// half-written preferences file. Caller holds the lock.
func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}

	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace preferences file: %w", err)
	}
	return nil
}
