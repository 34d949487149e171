// Package prefs is the small key-value preference store holding the login
// session and app settings. It is a single JSON document on disk: reads
// degrade to defaults instead of failing, writes rewrite the whole document
// atomically, and a watcher streams snapshots to subscribers.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

type Session struct {
	IsLoggedIn      bool      `json:"is_logged_in"`
	LoggedInUserID  uuid.UUID `json:"logged_in_user_id"`
	RememberMeEmail string    `json:"remember_me_email"`
}

type Settings struct {
	NotificationsEnabled bool   `json:"notifications_enabled"`
	DarkModeEnabled      bool   `json:"dark_mode_enabled"`
	Language             string `json:"app_language"`
}

// Snapshot is the full persisted preference document.
type Snapshot struct {
	Session
	Settings
}

func Defaults() Snapshot {
	return Snapshot{
		Settings: Settings{NotificationsEnabled: true, Language: "en"},
	}
}

type Store struct {
	path string
	log  *slog.Logger

	mu      sync.Mutex
	current Snapshot
	nextID  int
	subs    map[int]chan Snapshot

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Open loads the document at path, falling back to defaults when the file is
// missing or unreadable, and starts watching the file for on-disk changes.
func Open(path string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	s := &Store{
		path: path,
		log:  log,
		subs: make(map[int]chan Snapshot),
		done: make(chan struct{}),
	}
	s.current = s.load()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		// Degraded mode: local mutations still broadcast, external edits
		// are not picked up.
		log.Warn("prefs file watching disabled", "error", err)
		return s, nil
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		log.Warn("prefs file watching disabled", "error", err)
		w.Close()
		return s, nil
	}
	s.watcher = w
	go s.watchFile()
	return s, nil
}

func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	return nil
}

// load never fails: any problem yields the default snapshot. Session reads
// must not be fatal.
func (s *Store) load() Snapshot {
	snap := Defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read prefs, using defaults", "error", err)
		}
		return snap
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("decode prefs, using defaults", "error", err)
		return Defaults()
	}
	return snap
}

func (s *Store) watchFile() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != s.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			snap := s.load()
			s.mu.Lock()
			if snap != s.current {
				s.current = snap
				s.broadcastLocked()
			}
			s.mu.Unlock()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("prefs watcher", "error", err)
		}
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Watch streams snapshots: the current one immediately, then one per change.
// The slot is latest-wins, so slow readers never block a writer.
func (s *Store) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	ch <- s.current
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}()
	return ch
}

func (s *Store) SaveLoginState(userID uuid.UUID) error {
	return s.update(func(snap *Snapshot) {
		snap.IsLoggedIn = true
		snap.LoggedInUserID = userID
	})
}

func (s *Store) ClearLoginState() error {
	return s.update(func(snap *Snapshot) {
		snap.IsLoggedIn = false
		snap.LoggedInUserID = uuid.Nil
	})
}

func (s *Store) SaveRememberedEmail(email string) error {
	return s.update(func(snap *Snapshot) { snap.RememberMeEmail = email })
}

func (s *Store) SetNotifications(enabled bool) error {
	return s.update(func(snap *Snapshot) { snap.NotificationsEnabled = enabled })
}

func (s *Store) SetDarkMode(enabled bool) error {
	return s.update(func(snap *Snapshot) { snap.DarkModeEnabled = enabled })
}

func (s *Store) SetLanguage(lang string) error {
	return s.update(func(snap *Snapshot) { snap.Language = lang })
}

func (s *Store) update(mutate func(*Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	mutate(&next)
	if next == s.current {
		return nil
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next
	s.broadcastLocked()
	return nil
}

// persist writes via temp file + rename so a crash mid-write never leaves a
// truncated document.
func (s *Store) persist(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func (s *Store) broadcastLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- s.current:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s.current:
			default:
			}
		}
	}
}
