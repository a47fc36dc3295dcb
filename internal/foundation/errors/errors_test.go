package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithContext("file", "cbuild.json").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		assert.Equal(t, "[config:fatal] invalid configuration", err.Error())

		file, exists := err.Context().GetString("file")
		require.True(t, exists)
		assert.Equal(t, "cbuild.json", file)
	})

	t.Run("Category defaults", func(t *testing.T) {
		cfg := ConfigError("test error").Build()
		assert.False(t, cfg.CanRetry())
		assert.True(t, cfg.IsFatal())

		notify := NotifyError("publish failed").Build()
		assert.Equal(t, SeverityWarning, notify.Severity())
		assert.True(t, notify.CanRetry())

		build := BuildError("target failed").Build()
		assert.Equal(t, SeverityError, build.Severity())
		assert.Equal(t, RetryNever, build.RetryStrategy())
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading: %w", DependencyError("scan failed").Build())

		assert.True(t, HasCategory(err, CategoryDependency))
		assert.Equal(t, CategoryDependency, GetCategory(err))
		classified, ok := AsClassified(err)
		require.True(t, ok)
		assert.Equal(t, "scan failed", classified.Message())
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")

		_, ok := AsClassified(err)
		assert.False(t, ok)
		assert.False(t, HasCategory(err, CategoryInternal))
		assert.Equal(t, CategoryInternal, GetCategory(err))
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, CategoryBuild, "mkdir failed").
		Warning().
		Retryable().
		WithContext("path", "build").
		WithContext("mode", "0755").
		Build()

	assert.Equal(t, CategoryBuild, err.Category())
	assert.Equal(t, SeverityWarning, err.Severity())
	assert.Equal(t, RetryBackoff, err.RetryStrategy())
	assert.True(t, err.CanRetry())
	assert.ErrorIs(t, err, originalErr)
	assert.Equal(t, originalErr, err.Cause())
	assert.Equal(t, "[build:warning] mkdir failed: original error", err.Error())
	assert.Equal(t, "mode=0755 path=build", err.Details())
}

func TestErrorBuilderReuse(t *testing.T) {
	b := FileSystemError("write failed").WithContext("path", "a.o")
	first := b.Build()
	second := b.WithContext("path", "b.o").Build()

	got, _ := first.Context().GetString("path")
	assert.Equal(t, "a.o", got)
	got, _ = second.Context().GetString("path")
	assert.Equal(t, "b.o", got)
}

func TestClassifiedErrorIs(t *testing.T) {
	sentinel := BuildError("link failed").Build()
	err := fmt.Errorf("target app: %w", BuildError("link failed").WithContext("target", "app").Build())

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, BuildError("compile failed").Build())
	assert.NotErrorIs(t, err, ToolchainError("link failed").Build())
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := NotFoundError("missing").Build()
	derived := base.WithContext("path", "a.c")

	_, ok := base.Context().Get("path")
	assert.False(t, ok)
	assert.Empty(t, base.Details())
	got, _ := derived.Context().GetString("path")
	assert.Equal(t, "a.c", got)
}

func TestErrorContextSet(t *testing.T) {
	var ctx ErrorContext
	ctx = ctx.Set("target", "app")

	v, ok := ctx.Get("target")
	require.True(t, ok)
	assert.Equal(t, "app", v)

	ctx = ctx.Set("files", 3)
	_, ok = ctx.GetString("files")
	assert.False(t, ok)
}
