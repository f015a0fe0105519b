package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder fields", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.True(t, err.IsFatal())
		assert.Equal(t, "invalid configuration", err.Message())
		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "config.yaml", file)
	})

	t.Run("wrap keeps cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := WrapError(cause, CategoryNetwork, "HEAD failed").Retryable().Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.CanRetry())
		assert.True(t, IsRetryable(err))
		assert.Equal(t, "[network:error] HEAD failed: connection reset", err.Error())
	})

	t.Run("with context copies", func(t *testing.T) {
		base := FileSystemError("read failed").Build()
		derived := base.WithContext("file", "a.html")

		_, ok := base.Context().Get("file")
		assert.False(t, ok)
		v, ok := derived.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "a.html", v)
	})

	t.Run("helpers on plain errors", func(t *testing.T) {
		plain := errors.New("plain")
		assert.Equal(t, CategoryInternal, GetCategory(plain))
		assert.Equal(t, SeverityError, GetSeverity(plain))
		assert.False(t, HasCategory(plain, CategoryConfig))
		assert.False(t, IsRetryable(plain))
	})

	t.Run("errors.Is matches category and message", func(t *testing.T) {
		a := NewError(CategoryNotFound, "no such page").Build()
		b := NewError(CategoryNotFound, "no such page").WithContext("url", "/x").Build()
		assert.ErrorIs(t, b, a)
	})
}
