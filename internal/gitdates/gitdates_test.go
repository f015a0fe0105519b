package gitdates

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitekeeper/internal/testutil"
)

func TestRepo_LastMod(t *testing.T) {
	wt, root := testutil.InitRepo(t)

	day1 := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	testutil.Commit(t, wt, root, "site/index.html", "v1", day1)
	testutil.Commit(t, wt, root, "site/articles/a.html", "a", day1)
	testutil.Commit(t, wt, root, "site/index.html", "v2", day2)

	r, err := Open(filepath.Join(root, "site"))
	require.NoError(t, err)
	fallback := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fallback }

	assert.True(t, day2.Equal(r.LastMod("index.html")))
	assert.True(t, day1.Equal(r.LastMod("articles/a.html")))
	assert.True(t, fallback.Equal(r.LastMod("untracked.html")))
}

func TestOpen_NotARepository(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)

	src := OpenOrNow(t.TempDir())
	_, ok := src.(Fixed)
	assert.True(t, ok)
}
