package config

import (
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/cbuild/internal/foundation"
)

// Format is a configuration file syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// DefaultFileName is the configuration file looked up when none is given.
const DefaultFileName = "cbuild.json"

// FormatFromPath picks the syntax from the file extension; unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatJSON
	}
}

var formatNames = foundation.NewNormalizer(map[string]Format{
	"":     FormatJSON,
	"json": FormatJSON,
	"yaml": FormatYAML,
	"yml":  FormatYAML,
	"hcl":  FormatHCL,
}, "")

// ParseFormat normalizes a user-supplied format name; it returns "" when unknown.
func ParseFormat(s string) Format {
	return formatNames.Normalize(s)
}

// FileName returns the conventional config file name for the format.
func (f Format) FileName() string {
	switch f {
	case FormatYAML:
		return "cbuild.yaml"
	case FormatHCL:
		return "cbuild.hcl"
	default:
		return DefaultFileName
	}
}

// candidateFiles are tried in order by Find. config.json is the historical default name.
var candidateFiles = []string{"cbuild.json", "cbuild.yaml", "cbuild.yml", "cbuild.hcl", "config.json"}

// Find returns the first configuration file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range candidateFiles {
		path := filepath.Join(dir, name)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, true
		}
	}
	return "", false
}
