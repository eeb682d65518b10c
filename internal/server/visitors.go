package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/handiism/suno-downloader/internal/model"
)

const (
	visitorCookie = "sid"
	visitorTTL    = 24 * time.Hour
)

// VisitorSettings are the preferences of one web visitor. Booleans are
// encoded as the strings "true" and "false".
type VisitorSettings struct {
	NameTemplates  string `json:"name_templates"`
	OverwriteFiles string `json:"overwrite_files"`
	EmbedImages    string `json:"embed_images"`
}

// DefaultVisitorSettings returns the settings of a new visitor.
func DefaultVisitorSettings() VisitorSettings {
	return VisitorSettings{
		NameTemplates:  model.DefaultFileNameTemplate,
		OverwriteFiles: "false",
		EmbedImages:    "true",
	}
}

// RunConfig converts the settings to a RunConfig with the given concurrency.
func (v VisitorSettings) RunConfig(concurrency int) model.RunConfig {
	cfg := model.RunConfig{
		FileNameTemplate:  v.NameTemplates,
		OverwriteExisting: v.OverwriteFiles == "true",
		EmbedArtwork:      v.EmbedImages == "true",
		Concurrency:       concurrency,
	}
	if strings.TrimSpace(cfg.FileNameTemplate) == "" {
		cfg.FileNameTemplate = model.DefaultFileNameTemplate
	}
	return cfg
}

// settingsUpdate is the body of POST /api/settings. Absent fields keep
// their current value.
type settingsUpdate struct {
	NameTemplates  *string `json:"name_templates"`
	OverwriteFiles *string `json:"overwrite_files"`
	EmbedImages    *string `json:"embed_images"`
}

func (u settingsUpdate) apply(v VisitorSettings) VisitorSettings {
	if u.NameTemplates != nil {
		v.NameTemplates = *u.NameTemplates
	}
	if u.OverwriteFiles != nil {
		v.OverwriteFiles = *u.OverwriteFiles
	}
	if u.EmbedImages != nil {
		v.EmbedImages = *u.EmbedImages
	}
	return v
}

type visitorEntry struct {
	settings VisitorSettings
	seen     time.Time
}

// VisitorStore keeps VisitorSettings in memory. Entries idle for longer
// than the TTL are dropped.
type VisitorStore struct {
	mu      sync.Mutex
	entries map[string]*visitorEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewVisitorStore creates a store whose entries expire after ttl.
func NewVisitorStore(ttl time.Duration) *VisitorStore {
	return &VisitorStore{
		entries: make(map[string]*visitorEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the settings of visitor id, or the defaults.
func (s *VisitorStore) Get(id string) VisitorSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	e, ok := s.entries[id]
	if !ok {
		return DefaultVisitorSettings()
	}
	e.seen = s.now()
	return e.settings
}

// Put stores the settings of visitor id.
func (s *VisitorStore) Put(id string, v VisitorSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.entries[id] = &visitorEntry{settings: v, seen: s.now()}
}

// Len returns the number of live entries.
func (s *VisitorStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.entries)
}

func (s *VisitorStore) sweep() {
	cutoff := s.now().Add(-s.ttl)
	for id, e := range s.entries {
		if e.seen.Before(cutoff) {
			delete(s.entries, id)
		}
	}
}

// visitorID returns the visitor id from the request cookie, issuing a new
// one when it is missing or malformed.
func visitorID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(visitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(visitorTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
