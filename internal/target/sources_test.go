package target

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

func TestDiscoverSources(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, p := range []string{"src/main.c", "src/util/str.c", "src/util/str.h", "lib/extra.c", "README.c.md"} {
		writeFile(t, p)
	}
	require.NoError(t, os.MkdirAll("src/dir.c", 0o750))

	got := DiscoverSources([]string{"./src", "src/util", "lib", "missing"}, toolchain.New("gcc"))

	assert.Equal(t, []string{"lib/extra.c", "src/main.c", "src/util/str.c"}, got)
}

func TestDiscoverSourcesSingleFileRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "main.c")

	assert.Equal(t, []string{"main.c"}, DiscoverSources([]string{"main.c"}, toolchain.New("")))
	assert.Empty(t, DiscoverSources(nil, toolchain.New("")))
}

func TestDiscoverSourcesSymlinkedRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "real/main.c")
	writeFile(t, "real/sub/util.c")
	writeFile(t, "solo/one.c")
	require.NoError(t, os.Symlink("real", "src"))
	require.NoError(t, os.Symlink("solo/one.c", "one.c"))

	got := DiscoverSources([]string{"src", "one.c"}, toolchain.New("gcc"))

	assert.Equal(t, []string{"one.c", "src/main.c", "src/sub/util.c"}, got)
}

func TestIncludePaths(t *testing.T) {
	got := IncludePaths([]string{"include", "./include", "vendor/", "", "third_party", "vendor"})
	assert.Equal(t, []string{"include", "vendor", "third_party"}, got)
	assert.Empty(t, IncludePaths(nil))
}
