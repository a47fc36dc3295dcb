package command

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

var gcc = toolchain.New("gcc")

func TestCompileRejectsSecondInput(t *testing.T) {
	b := NewBuilder(gcc, KindCompile)
	require.NoError(t, b.AddInput("a.c"))
	err := b.AddInput("b.c")
	require.ErrorIs(t, err, ErrTooManyInputs)

	require.NoError(t, b.SetOutput("build/a"))
	d, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c"}, d.Inputs(), "rejected input must not be kept")
}

func TestLinkAcceptsManyInputs(t *testing.T) {
	b := NewBuilder(gcc, KindLink)
	require.NoError(t, b.AddInput("a.o"))
	require.NoError(t, b.AddInput("b.o"))
	require.NoError(t, b.AddInputs([]string{"c.o", "d.o"}))
	require.NoError(t, b.SetOutput("build/app"))

	d, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.o", "b.o", "c.o", "d.o"}, d.Inputs())
}

func TestCompileAddInputsCountsExisting(t *testing.T) {
	b := NewBuilder(gcc, KindCompile)
	require.NoError(t, b.AddInputs([]string{"a.c"}))
	require.ErrorIs(t, b.AddInputs([]string{"b.c"}), ErrTooManyInputs)
	require.ErrorIs(t, NewBuilder(gcc, KindCompile).AddInputs([]string{"a.c", "b.c"}), ErrTooManyInputs)
}

func TestSetOutputDerivesObjectPath(t *testing.T) {
	b := NewBuilder(gcc, KindCompile)
	require.NoError(t, b.AddInput("a.c"))
	require.NoError(t, b.SetOutput(filepath.Join("build", "a")))

	d, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("build", "a.o"), d.Output())
}

func TestSetOutputKeepsSourceExtension(t *testing.T) {
	b := NewBuilder(gcc, KindCompile)
	require.NoError(t, b.AddInput("src/util/str.c"))
	require.NoError(t, b.SetOutput(filepath.Join("build", "src", "util", "str.c")))

	d, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("build", "src", "util", "str.c.o"), d.Output())
}

func TestSetOutputLinkIsVerbatim(t *testing.T) {
	b := NewBuilder(gcc, KindLink)
	require.NoError(t, b.AddInput("a.o"))
	require.NoError(t, b.SetOutput(filepath.Join("build", "app")))

	d, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("build", "app"), d.Output())
}

func TestSetOutputInvalidName(t *testing.T) {
	for _, p := range []string{"", ".", "..", "build/", "build/.."} {
		t.Run(p, func(t *testing.T) {
			b := NewBuilder(gcc, KindCompile)
			require.ErrorIs(t, b.SetOutput(p), ErrInvalidOutputName)
		})
	}
}

func TestBuildRequiresOutput(t *testing.T) {
	b := NewBuilder(gcc, KindCompile)
	require.NoError(t, b.AddInput("a.c"))
	_, err := b.Build()
	require.ErrorIs(t, err, ErrOutputNotSet)

	_, err = NewBuilder(gcc, KindLink).Build()
	require.ErrorIs(t, err, ErrOutputNotSet)
}

func TestBuildRequiresInput(t *testing.T) {
	b := NewBuilder(gcc, KindLink)
	require.NoError(t, b.SetOutput("build/app"))
	_, err := b.Build()
	require.ErrorIs(t, err, ErrNoInputs)
}

func TestLinkDropsIncludesAndFlags(t *testing.T) {
	b := NewBuilder(gcc, KindLink)
	require.NoError(t, b.AddInput("a.o"))
	b.AddIncludes("include")
	b.AddFlags("-Wall")
	require.NoError(t, b.SetOutput("build/app"))

	d, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, d.Includes())
	assert.Empty(t, d.Flags())
	assert.Equal(t, []string{"a.o", "-o", "build/app"}, d.Args())
}

func TestBuilderChangesDoNotLeakIntoDescriptor(t *testing.T) {
	b := NewBuilder(gcc, KindLink)
	require.NoError(t, b.AddInput("a.o"))
	require.NoError(t, b.SetOutput("build/app"))
	d, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, b.AddInput("b.o"))
	assert.Equal(t, []string{"a.o"}, d.Inputs())
}
