// Package archive assembles downloaded tracks into a single zip file.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

// Entry is one file of an archive.
type Entry struct {
	Name    string
	Content []byte
}

// Assemble builds a zip archive holding every entry under its name.
//
// Entries are stored in order. When a name repeats, the later entry gets an
// index before its extension: "Song.mp3", "Song (2).mp3", "Song (3).mp3".
func Assemble(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	used := make(map[string]struct{}, len(entries))
	modified := time.Now()

	for _, e := range entries {
		name := uniqueName(e.Name, used)
		used[strings.ToLower(name)] = struct{}{}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
		if _, err := w.Write(e.Content); err != nil {
			return nil, fmt.Errorf("add %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// uniqueName returns name, or name with the lowest free index appended.
// Names are compared case-insensitively since most extractors target
// case-insensitive file systems.
func uniqueName(name string, used map[string]struct{}) string {
	if _, ok := used[strings.ToLower(name)]; !ok {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, ok := used[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}

// Collector is an in-memory download destination. It never reports a file
// as existing, so every track of a run is fetched.
type Collector struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{files: make(map[string][]byte)}
}

// Exists always returns false.
func (c *Collector) Exists(ctx context.Context, name string) (bool, error) {
	return false, nil
}

// Write stores data under name.
func (c *Collector) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[name] = data
	return nil
}

// Entries returns the collected files for names, in that order. Names that
// were never written are left out.
func (c *Collector) Entries(names []string) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if data, ok := c.files[name]; ok {
			entries = append(entries, Entry{Name: name, Content: data})
		}
	}
	return entries
}

// Len returns the number of collected files.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}
