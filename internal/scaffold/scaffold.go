// Package scaffold creates the skeleton of a new cbuild project.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/cbuild/internal/config"
	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// Options controls Init.
type Options struct {
	// Dir is the project root. Defaults to the working directory.
	Dir       string
	// Name defaults to the base name of Dir.
	Name      string
	// Format selects the config syntax. Defaults to JSON.
	Format    config.Format
	// Toolchain defaults to CBUILD_TOOLCHAIN, then gcc.
	Toolchain string
	Force     bool
	Git       bool
}

// Result lists what Init wrote.
type Result struct {
	Dir        string
	ConfigPath string
	Files      []string
	Repository bool
}

const initialVersion = "0.1.0"

// Init writes a config file, src/main.c, an include/ directory with one
// header, a README and a .gitignore. Existing files are only replaced with
// Force.
func Init(opts Options) (*Result, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to resolve project directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	format := opts.Format
	if format == "" {
		format = config.FormatJSON
	}

	name := opts.Name
	if name == "" {
		name = sanitizeName(filepath.Base(abs))
	}

	p := &config.Project{
		Name:      name,
		Version:   initialVersion,
		Toolchain: opts.Toolchain,
		Targets: []config.Target{{
			Name:    name,
			Src:     []string{"src"},
			Include: []string{"include"},
			Flags:   []string{"-Wall"},
		}},
	}
	config.ApplyDefaults(p)
	if opts.Toolchain != "" {
		p.Toolchain = opts.Toolchain
	}
	if err := config.Validate(p); err != nil {
		return nil, err
	}
	cfgData, err := config.Encode(p, format)
	if err != nil {
		return nil, ferrors.InternalError("failed to encode configuration").WithCause(err).Build()
	}

	files := []struct {
		rel  string
		data []byte
	}{
		{format.FileName(), cfgData},
		{filepath.Join("src", "main.c"), []byte(mainSource(name))},
		{filepath.Join("include", headerName(name)), []byte(headerSource(name))},
		{"README.md", []byte(readme(name, p.Build.Dir))},
		{".gitignore", []byte("/" + p.Build.Dir + "/\n")},
	}

	if !opts.Force {
		for _, f := range files {
			path := filepath.Join(abs, f.rel)
			if _, err := os.Stat(path); err == nil {
				return nil, ferrors.ValidationError("refusing to overwrite existing file (use --force)").
					WithContext("path", path).Build()
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, ferrors.FileSystemError("failed to stat file").
					WithCause(err).WithContext("path", path).Build()
			}
		}
	}

	res := &Result{Dir: abs, ConfigPath: filepath.Join(abs, format.FileName())}
	for _, f := range files {
		path := filepath.Join(abs, f.rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, ferrors.FileSystemError("failed to create directory").
				WithCause(err).WithContext("path", filepath.Dir(path)).Build()
		}
		if err := os.WriteFile(path, f.data, 0o600); err != nil {
			return nil, ferrors.FileSystemError("failed to write file").
				WithCause(err).WithContext("path", path).Build()
		}
		res.Files = append(res.Files, f.rel)
		slog.Debug("Wrote scaffold file", logfields.Path(path))
	}

	if opts.Git {
		created, err := initRepository(abs)
		if err != nil {
			return nil, err
		}
		res.Repository = created
	}
	return res, nil
}

// initRepository runs the equivalent of git init; an existing repository is left alone.
func initRepository(dir string) (bool, error) {
	_, err := git.PlainInit(dir, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		slog.Info("Git repository already exists", logfields.Path(dir))
		return false, nil
	}
	if err != nil {
		return false, ferrors.FileSystemError("failed to initialize git repository").
			WithCause(err).WithContext("path", dir).Build()
	}
	return true, nil
}

// sanitizeName turns a directory name into a target name usable as a file name.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "app"
	}
	return out
}

func headerName(name string) string {
	return strings.ReplaceAll(name, "-", "_") + ".h"
}

func guard(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_H"
}

func title(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func mainSource(name string) string {
	return fmt.Sprintf(`#include <stdio.h>

#include "%s"

int main(void) {
    printf("%%s\n", %s_GREETING);
    return 0;
}
`, headerName(name), strings.TrimSuffix(guard(name), "_H"))
}

func headerSource(name string) string {
	g := guard(name)
	return fmt.Sprintf(`#ifndef %s
#define %s

#define %s_GREETING "Hello from %s"

#endif
`, g, g, strings.TrimSuffix(g, "_H"), name)
}

func readme(name, buildDir string) string {
	return fmt.Sprintf("# %s\n\nBuild with `cbuild build`. Executables are written to `%s/`.\n", title(name), buildDir)
}
