// Package username keeps the persistent wallet→handle map. Handles are
// globally unique (case-insensitive) and immutable once set.
package username

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/celebiasallll/coffychess/internal/ethutil"
	"github.com/celebiasallll/coffychess/internal/obslog"
)

var (
	ErrAlreadyRegistered = errors.New("wallet already has a username")
	ErrInvalidFormat     = errors.New("username must be 3-15 characters of letters, digits or underscore")
	ErrTaken             = errors.New("username is taken")
)

var handleRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,15}$`)

type Registry struct {
	mu       sync.RWMutex
	path     string
	byWallet map[string]string // lower wallet → handle (display casing)
	taken    map[string]string // lower handle → lower wallet
}

// Load reads the JSON file at path, creating an empty registry when the
// file does not exist yet.
func Load(path string) (*Registry, error) {
	r := &Registry{
		path:     path,
		byWallet: make(map[string]string),
		taken:    make(map[string]string),
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read usernames file: %w", err)
	}
	if err := json.Unmarshal(raw, &r.byWallet); err != nil {
		return nil, fmt.Errorf("parse usernames file: %w", err)
	}
	for wallet, handle := range r.byWallet {
		r.taken[strings.ToLower(handle)] = wallet
	}
	return r, nil
}

// Get returns the handle registered for a wallet, if any.
func (r *Registry) Get(wallet string) (string, bool) {
	key, err := ethutil.NormalizeAddress(wallet)
	if err != nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byWallet[key]
	return h, ok
}

// Set registers a handle for a wallet and persists the file. One handle per
// wallet; first write wins.
func (r *Registry) Set(wallet, handle string) error {
	key, err := ethutil.NormalizeAddress(wallet)
	if err != nil {
		return ErrInvalidFormat
	}
	handle = strings.TrimSpace(handle)
	if !handleRe.MatchString(handle) {
		return ErrInvalidFormat
	}
	lower := strings.ToLower(handle)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byWallet[key]; exists {
		return ErrAlreadyRegistered
	}
	if _, exists := r.taken[lower]; exists {
		return ErrTaken
	}
	r.byWallet[key] = handle
	r.taken[lower] = key
	if err := r.persistLocked(); err != nil {
		delete(r.byWallet, key)
		delete(r.taken, lower)
		return err
	}
	obslog.L().Info("username_set", zap.String("wallet", key), zap.String("username", handle))
	return nil
}

// Count returns the number of registered handles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byWallet)
}

func (r *Registry) persistLocked() error {
	if dir := filepath.Dir(r.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("usernames dir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(r.byWallet, "", "  ")
	if err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write usernames file: %w", err)
	}
	return os.Rename(tmp, r.path)
}
