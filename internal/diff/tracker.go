// Package diff tracks file changes accumulated over a turn and renders
// them as one unified diff. A Tracker is not safe for concurrent use;
// concurrent patch applications share it through Shared.
package diff

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-udiff"

	"toolwire/internal/protocol"
)

type baseline struct {
	content string
	existed bool
}

// Tracker accumulates pre-images of files as patches touch them and
// diffs those baselines against the filesystem on request.
type Tracker struct {
	root      string
	baselines map[string]baseline
}

// NewTracker constructs a tracker resolving relative paths under root.
func NewTracker(root string) *Tracker {
	return &Tracker{root: root, baselines: make(map[string]baseline)}
}

// OnPatchBegin snapshots the current content of every file the pending
// changes will touch. A path already tracked this turn keeps its
// original baseline so later patches diff against the turn start.
func (t *Tracker) OnPatchBegin(changes map[string]protocol.FileChange) {
	for path := range changes {
		if _, ok := t.baselines[path]; ok {
			continue
		}
		content, existed, err := t.readFile(path)
		if err != nil {
			// Unreadable pre-image: treat as absent so the diff still
			// shows the post-patch content.
			t.baselines[path] = baseline{}
			continue
		}
		t.baselines[path] = baseline{content: content, existed: existed}
	}
}

// UnifiedDiff renders all tracked changes as one unified diff. An
// empty string means no changes.
func (t *Tracker) UnifiedDiff() (string, error) {
	paths := make([]string, 0, len(t.baselines))
	for path := range t.baselines {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		before := t.baselines[path]
		after, _, err := t.readFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		fileDiff := udiff.Unified("a/"+path, "b/"+path, before.content, after)
		b.WriteString(fileDiff)
	}
	return b.String(), nil
}

func (t *Tracker) readFile(path string) (content string, existed bool, err error) {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(t.root, resolved)
	}
	data, err := os.ReadFile(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Shared wraps a Tracker in the exclusive lock concurrent patch
// applications within a turn coordinate through. The lock covers one
// tracker call at a time and is never held across an event send.
type Shared struct {
	mu      sync.Mutex
	tracker *Tracker
}

// NewShared constructs a Shared tracker rooted at root.
func NewShared(root string) *Shared {
	return &Shared{tracker: NewTracker(root)}
}

// OnPatchBegin locks the tracker for one snapshot pass.
func (s *Shared) OnPatchBegin(changes map[string]protocol.FileChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.OnPatchBegin(changes)
}

// UnifiedDiff locks the tracker for one diff read.
func (s *Shared) UnifiedDiff() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.UnifiedDiff()
}
