package service

import (
	"context"
	"strconv"

	"flowboard/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Window Size Persistence
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the desktop window size between sessions in the same
// key/value store that holds the revision counter.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowSettingsService persists window size between sessions.
type WindowSettingsService struct {
	kv     domain.KVStore
	prefix string
}

// NewWindowSettingsService creates a WindowSettingsService. Keys are
// namespaced by identity like the revision key.
func NewWindowSettingsService(kv domain.KVStore, identity string) *WindowSettingsService {
	return &WindowSettingsService{kv: kv, prefix: identity + "."}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	defaultWindowWidth  = 1280
	defaultWindowHeight = 800
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *WindowSettingsService) LoadWindowSize(ctx context.Context) WindowSize {
	if s.kv == nil {
		return WindowSize{Width: defaultWindowWidth, Height: defaultWindowHeight}
	}
	w := s.loadInt(ctx, settingWindowWidth, defaultWindowWidth)
	h := s.loadInt(ctx, settingWindowHeight, defaultWindowHeight)

	if w < 800 {
		w = defaultWindowWidth
	}
	if h < 600 {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *WindowSettingsService) SaveWindowSize(ctx context.Context, width, height int) error {
	if err := s.kv.Set(ctx, s.prefix+settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.kv.Set(ctx, s.prefix+settingWindowHeight, strconv.Itoa(height))
}

func (s *WindowSettingsService) loadInt(ctx context.Context, key string, fallback int) int {
	v, ok, err := s.kv.Get(ctx, s.prefix+key)
	if err != nil || !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
