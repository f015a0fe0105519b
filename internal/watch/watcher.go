// Package watch re-runs a build when the master layout or the config file
// changes on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitekeeper/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

// Trigger runs after a debounced batch of changes. changed lists the
// absolute paths whose content differs from the previous run.
type Trigger func(ctx context.Context, changed []string) error

// Watcher monitors a fixed set of files through their parent directories.
type Watcher struct {
	targets  []string          // absolute file paths
	hashes   map[string]string // content digest after the last run
	debounce time.Duration
	trigger  Trigger
	fsw      *fsnotify.Watcher
}

// Targets lists the files a watch session monitors: the master layout, its
// language variants, any configured extra paths and the config file.
func Targets(cfg *config.Config, configPath string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		if abs, err := filepath.Abs(p); err == nil && !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	add(cfg.RootPath(cfg.Site.MasterLayout))
	for _, lang := range cfg.Site.Languages {
		if lang.Prefix == "" {
			continue
		}
		variant := cfg.RootPath(lang.Prefix + "/" + cfg.Site.MasterLayout)
		if _, err := os.Stat(variant); err == nil {
			add(variant)
		}
	}
	for _, p := range cfg.Watch.Paths {
		add(cfg.RootPath(p))
	}
	add(configPath)
	slices.Sort(out)
	return out
}

// New creates a watcher for targets. Nothing is observed until Run.
func New(targets []string, debounce time.Duration, trigger Trigger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	dirs := map[string]bool{}
	for _, t := range targets {
		dir := filepath.Dir(t)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to watch directory").
				WithContext("dir", dir).Build()
		}
	}
	w := &Watcher{
		targets:  slices.Sorted(slices.Values(targets)),
		debounce: debounce,
		trigger:  trigger,
		fsw:      fsw,
	}
	w.hashes = w.snapshot()
	return w, nil
}

// Run blocks until ctx is done. Trigger errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		if err := w.fsw.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	}()
	slog.Info("Watching for changes", logfields.Count(len(w.targets)),
		slog.Duration("debounce", w.debounce))

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		case <-fire:
			fire = nil
			w.fire(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, found := slices.BinarySearch(w.targets, abs)
	return found
}

// fire runs the trigger when content actually changed. Hashes are taken
// again afterwards so writes made by the trigger itself do not loop.
func (w *Watcher) fire(ctx context.Context) {
	current := w.snapshot()
	var changed []string
	for _, t := range w.targets {
		if current[t] != w.hashes[t] {
			changed = append(changed, t)
		}
	}
	if len(changed) == 0 {
		slog.Debug("Watched files unchanged, skipping rebuild")
		return
	}
	slog.Info("Rebuilding after change", slog.Any("files", changed))
	if err := w.trigger(ctx, changed); err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
	}
	w.hashes = w.snapshot()
}

// snapshot digests every target. Missing files map to the empty string.
func (w *Watcher) snapshot() map[string]string {
	out := make(map[string]string, len(w.targets))
	for _, t := range w.targets {
		out[t] = digest(t)
	}
	return out
}

func digest(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
