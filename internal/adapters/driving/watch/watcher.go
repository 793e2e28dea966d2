// Package watch keeps the document index in step with a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Action is what an event asks the watcher to do.
type Action int

const (
	// ActionNone ignores the event.
	ActionNone Action = iota
	// ActionUpload uploads (or replaces) the file.
	ActionUpload
	// ActionDelete removes the file's document.
	ActionDelete
)

// String returns the action name for logs.
func (a Action) String() string {
	switch a {
	case ActionUpload:
		return "upload"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Event reports one processed file.
type Event struct {
	Path   string
	Action Action
	Result *domain.UploadResult
	Err    error
}

// Watcher uploads files from a directory and follows later changes.
// Documents are keyed by file name, so files with the same name in
// different subdirectories replace each other.
type Watcher struct {
	dir       string
	documents driving.DocumentService
}

// New creates a watcher for dir.
func New(dir string, documents driving.DocumentService) *Watcher {
	return &Watcher{dir: dir, documents: documents}
}

// Sync uploads every visible regular file under the directory.
func (w *Watcher) Sync(ctx context.Context) ([]Event, error) {
	var events []Event
	err := filepath.WalkDir(w.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path != w.dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		events = append(events, w.apply(ctx, path, ActionUpload))
		return nil
	})
	if err != nil {
		return events, fmt.Errorf("walk %s: %w", w.dir, err)
	}
	return events, nil
}

// Watch follows changes until ctx is cancelled. Each processed file is
// reported on the returned channel, which closes when watching stops.
func (w *Watcher) Watch(ctx context.Context) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer fsw.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				action := handleFsEvent(ev)
				if action == ActionNone {
					continue
				}
				select {
				case out <- w.apply(ctx, ev.Name, action):
				case <-ctx.Done():
					return
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("watch %s: %v", w.dir, err)
			}
		}
	}()
	return out, nil
}

func (w *Watcher) apply(ctx context.Context, path string, action Action) Event {
	ev := Event{Path: path, Action: action}
	name := filepath.Base(path)

	switch action {
	case ActionUpload:
		content, err := os.ReadFile(path)
		if err != nil {
			ev.Err = err
			break
		}
		ev.Result, ev.Err = w.documents.Upload(ctx, &domain.RawDocument{Name: name, Content: content})
	case ActionDelete:
		ev.Err = w.documents.Delete(ctx, name)
		if errors.Is(ev.Err, domain.ErrNotFound) {
			ev.Err = nil
		}
	}

	if ev.Err != nil {
		logger.Warn("%s %s: %v", action, name, ev.Err)
	} else {
		logger.Debug("%s %s", action, name)
	}
	return ev
}

// handleFsEvent maps a filesystem event to an action.
func handleFsEvent(ev fsnotify.Event) Action {
	if isHidden(filepath.Base(ev.Name)) {
		return ActionNone
	}

	switch {
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || !info.Mode().IsRegular() {
			return ActionNone
		}
		return ActionUpload
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return ActionDelete
	default:
		return ActionNone
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
