// Package gitdates answers "when was this file last committed" for sitemap
// lastmod values.
package gitdates

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
)

var errStop = errors.New("stop iteration")

// Source returns the last modification time of a root-relative file.
type Source interface {
	LastMod(file string) time.Time
}

// Fixed reports the same time for every file.
type Fixed time.Time

func (f Fixed) LastMod(string) time.Time { return time.Time(f) }

// Repo looks up commit times in the git repository containing the site.
// Files with no commit (untracked, or outside any repository) fall back to
// the time returned by now.
type Repo struct {
	repo   *git.Repository
	prefix string // site root relative to the worktree, slash separated
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]time.Time
}

// Open finds the repository containing siteRoot, searching parent
// directories.
func Open(siteRoot string) (*Repo, error) {
	abs, err := filepath.Abs(siteRoot)
	if err != nil {
		return nil, err
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	rel, err := filepath.Rel(resolve(wt.Filesystem.Root()), resolve(abs))
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}
	return &Repo{repo: repo, prefix: prefix, now: time.Now, cache: make(map[string]time.Time)}, nil
}

func resolve(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	return p
}

// LastMod returns the committer time of the newest commit touching file.
func (r *Repo) LastMod(file string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[file]; ok {
		return t
	}
	t, err := r.lookup(file)
	if err != nil {
		slog.Debug("No commit date, using current time", logfields.File(file), logfields.Error(err))
		t = r.now()
	}
	r.cache[file] = t
	return t
}

func (r *Repo) lookup(file string) (time.Time, error) {
	name := strings.TrimPrefix(path.Join(r.prefix, file), "/")
	ref, err := r.repo.Head()
	if err != nil {
		return time.Time{}, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash(), FileName: &name})
	if err != nil {
		return time.Time{}, err
	}
	defer iter.Close()

	var when time.Time
	err = iter.ForEach(func(c *object.Commit) error {
		when = c.Committer.When
		return errStop
	})
	if err != nil && !errors.Is(err, errStop) {
		return time.Time{}, err
	}
	if when.IsZero() {
		return time.Time{}, fmt.Errorf("no commit touches %s", name)
	}
	return when, nil
}

// OpenOrNow returns a repository source for siteRoot, or the current time
// for every file when the site is not under git.
func OpenOrNow(siteRoot string) Source {
	r, err := Open(siteRoot)
	if err != nil {
		slog.Warn("Site is not in a git repository, lastmod defaults to today",
			logfields.Path(siteRoot), logfields.Error(err))
		return Fixed(time.Now())
	}
	return r
}
