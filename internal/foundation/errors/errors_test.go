package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError_BasicFields(t *testing.T) {
	err := NewError(CategoryConfig, "invalid configuration").
		WithSeverity(SeverityFatal).
		WithContext("file", "sitegen.yaml").
		Build()

	assert.Equal(t, CategoryConfig, err.Category())
	assert.Equal(t, SeverityFatal, err.Severity())
	assert.Equal(t, "invalid configuration", err.Message())

	file, ok := err.Context().GetString("file")
	require.True(t, ok)
	assert.Equal(t, "sitegen.yaml", file)
}

func TestClassifiedError_ErrorStringIsStable(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := IOError("copy failed").
		WithContext("rule", "img").
		WithContext("path", "img/a.png").
		WithCause(cause).
		Build()

	assert.Equal(t, "[io:error] copy failed path=img/a.png rule=img: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestHasCategory_WalksWrappedChain(t *testing.T) {
	inner := LayoutCycle("layout chain contains a cycle").Build()
	outer := fmt.Errorf("render page: %w", inner)

	assert.True(t, HasCategory(outer, CategoryLayoutCycle))
	assert.False(t, HasCategory(outer, CategoryConfig))

	wrapped := WrapError(inner, CategoryBuild, "build aborted").Build()
	assert.True(t, HasCategory(wrapped, CategoryBuild))
	assert.True(t, HasCategory(wrapped, CategoryLayoutCycle))
}

func TestConvenienceConstructors_Severity(t *testing.T) {
	tests := []struct {
		name  string
		err   *ClassifiedError
		fatal bool
	}{
		{"config", ConfigError("x").Build(), true},
		{"document parse", DocumentParseError("x").Build(), false},
		{"layout not found", LayoutNotFound("x").Build(), false},
		{"layout cycle", LayoutCycle("x").Build(), true},
		{"output collision", OutputCollision("x").Build(), true},
		{"io", IOError("x").Build(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, tt.err.IsFatal())
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestIsFatal_UnclassifiedIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(stderrors.New("boom")))
}

func TestClassifiedError_WithContextDoesNotMutateOriginal(t *testing.T) {
	base := RenderError("template failed").WithContext("path", "a.md").Build()
	derived := base.WithContext("layout", "post")

	_, ok := base.Context().Get("layout")
	assert.False(t, ok)
	layout, ok := derived.Context().GetString("layout")
	require.True(t, ok)
	assert.Equal(t, "post", layout)
}

func TestClassifiedError_Is(t *testing.T) {
	a := ConfigError("input directory missing").Build()
	b := ConfigError("input directory missing").WithContext("path", "src").Build()
	c := ConfigError("other").Build()

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}
