package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/logfields"
)

// Load reads, decodes, defaults and validates the configuration at path.
//
// .env and .env.local are loaded first, then ${VAR} references in the file
// are expanded from the environment before decoding.
func Load(path string) (*Project, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.NotFoundError("configuration file not found").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.ConfigError("failed to read config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	expanded := []byte(expandEnv(string(data)))
	p, err := Decode(expanded, FormatFromPath(path), path)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(p)
	if err := Validate(p); err != nil {
		return nil, err
	}

	slog.Debug("Loaded configuration",
		logfields.Path(path),
		logfields.Project(p.Name),
		logfields.Toolchain(p.Toolchain),
		logfields.Count(len(p.Targets)))
	return p, nil
}

// Decode parses data in the given format without applying defaults or validation.
func Decode(data []byte, format Format, filename string) (*Project, error) {
	var (
		p   *Project
		err error
	)
	switch format {
	case FormatYAML:
		p = &Project{}
		err = yaml.Unmarshal(data, p)
	case FormatHCL:
		p, err = decodeHCL(data, filename)
	default:
		p = &Project{}
		err = json.Unmarshal(data, p)
	}
	if err != nil {
		return nil, ferrors.ConfigError("failed to decode configuration").
			WithCause(err).
			WithContext("path", filename).
			WithContext("format", string(format)).
			Build()
	}
	return p, nil
}

// Encode renders p in the given format.
func Encode(p *Project, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatHCL:
		return encodeHCL(p), nil
	default:
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}
