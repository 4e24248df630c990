// Package blacklist keeps the blocked group and user ids and mirrors them to a
// JSON file.
package blacklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Config is the blacklist as stored on disk and served over HTTP.
type Config struct {
	BlockedGroups []string `json:"blockedGroups"`
	BlockedUsers  []string `json:"blockedUsers"`
}

// rawConfig accepts any JSON value for each field so that non-array fields can
// be told apart from arrays.
type rawConfig struct {
	BlockedGroups json.RawMessage `json:"blockedGroups"`
	BlockedUsers  json.RawMessage `json:"blockedUsers"`
}

// Store owns the blacklist. All methods are safe for concurrent use.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	cfg Config
}

// NewStore returns a store with an empty blacklist backed by path.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger.With("component", "blacklist"),
		cfg:    emptyConfig(),
	}
}

func emptyConfig() Config {
	return Config{BlockedGroups: []string{}, BlockedUsers: []string{}}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file. A missing file leaves the blacklist empty and
// is not an error. Any other failure also leaves it empty and is returned.
func (s *Store) Load() error {
	cfg, err := readFile(s.path)

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if err != nil {
		return err
	}
	s.logger.Debug("Blacklist loaded", "path", s.path,
		"groups", len(cfg.BlockedGroups), "users", len(cfg.BlockedUsers))
	return nil
}

func readFile(path string) (Config, error) {
	if path == "" {
		return emptyConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptyConfig(), nil
		}
		return emptyConfig(), fmt.Errorf("read blacklist %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return emptyConfig(), fmt.Errorf("parse blacklist %s: %w", path, err)
	}

	cfg := emptyConfig()
	if ids, ok := CoerceIDs(raw.BlockedGroups); ok {
		cfg.BlockedGroups = ids
	}
	if ids, ok := CoerceIDs(raw.BlockedUsers); ok {
		cfg.BlockedUsers = ids
	}
	return cfg, nil
}

// Save writes the blacklist as 2-space indented JSON, creating the parent
// directory when needed.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.cfg, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode blacklist: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create blacklist dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write blacklist %s: %w", s.path, err)
	}
	return nil
}

// Update replaces the lists that are non-nil and saves. The in-memory change
// is kept even when saving fails.
func (s *Store) Update(groups, users *[]string) error {
	s.mu.Lock()
	if groups != nil {
		s.cfg.BlockedGroups = slices.Clone(*groups)
	}
	if users != nil {
		s.cfg.BlockedUsers = slices.Clone(*users)
	}
	s.mu.Unlock()

	return s.Save()
}

// Snapshot returns a copy of the current blacklist.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Config{
		BlockedGroups: slices.Clone(s.cfg.BlockedGroups),
		BlockedUsers:  slices.Clone(s.cfg.BlockedUsers),
	}
}

// IsGroupBlocked reports whether groupID is blocked. Empty ids never are.
func (s *Store) IsGroupBlocked(groupID string) bool {
	if groupID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.cfg.BlockedGroups, groupID)
}

// IsUserBlocked reports whether userID is blocked. Empty ids never are.
func (s *Store) IsUserBlocked(userID string) bool {
	if userID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.cfg.BlockedUsers, userID)
}

// CoerceIDs converts a JSON array into strings. Strings are kept as is, any
// other element keeps its JSON text form (12345 becomes "12345"). ok is false
// when raw is absent or not an array.
func CoerceIDs(raw json.RawMessage) (ids []string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false
	}
	return lo.Map(elems, func(elem json.RawMessage, _ int) string {
		elem = bytes.TrimSpace(elem)
		var s string
		if len(elem) > 0 && elem[0] == '"' && json.Unmarshal(elem, &s) == nil {
			return s
		}
		return string(elem)
	}), true
}
