package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringHelpers(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		attr slog.Attr
	}{
		{"File", KeyFile, "articles/a.html", File("articles/a.html")},
		{"URL", KeyURL, "/articles/a", URL("/articles/a")},
		{"Href", KeyHref, "../b.html", Href("../b.html")},
		{"Stage", KeyStage, "rewrite_links", Stage("rewrite_links")},
		{"RunID", KeyRunID, "r1", RunID("r1")},
		{"Endpoint", KeyEndpoint, "https://api.indexnow.org/indexnow", Endpoint("https://api.indexnow.org/indexnow")},
		{"Path", KeyPath, "/srv/site", Path("/srv/site")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.key, tc.attr.Key)
			assert.Equal(t, tc.val, tc.attr.Value.String())
		})
	}
}

func TestNumericHelpers(t *testing.T) {
	assert.Equal(t, int64(404), Status(404).Value.Int64())
	assert.Equal(t, int64(3), Count(3).Value.Int64())
	assert.Equal(t, int64(88), Score(88).Value.Int64())
	assert.InDelta(t, 12.5, DurationMS(12.5).Value.Float64(), 0.0001)
}

func TestError(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
