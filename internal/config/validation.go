package config

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/cbuild/internal/retry"
)

// Validate checks a project after defaults have been applied.
func Validate(p *Project) error {
	v := &projectValidator{project: p}
	for _, check := range []func() error{
		v.validateProject,
		v.validateVersion,
		v.validateTargets,
		v.validateNotify,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

type projectValidator struct {
	project *Project
}

func (v *projectValidator) validateProject() error {
	if strings.TrimSpace(v.project.Name) == "" {
		return invalid("project name cannot be empty", "name", "")
	}
	return nil
}

// validateVersion accepts semantic versions with or without a leading "v".
func (v *projectValidator) validateVersion() error {
	raw := strings.TrimSpace(v.project.Version)
	if raw == "" {
		return invalid("project version cannot be empty", "version", raw)
	}
	ver := "v" + strings.TrimPrefix(raw, "v")
	release, _, _ := strings.Cut(ver, "+")
	// Canonical pads "v1" and "v1.2", so equality demands all three components.
	if !semver.IsValid(ver) || semver.Canonical(ver) != release {
		return invalid(fmt.Sprintf("project version %q is not a semantic version", raw), "version", raw)
	}
	return nil
}

func (v *projectValidator) validateTargets() error {
	if len(v.project.Targets) == 0 {
		return invalid("at least one executable must be configured", "executable", "")
	}

	seen := make(map[string]bool, len(v.project.Targets))
	for i, t := range v.project.Targets {
		field := fmt.Sprintf("executable[%d]", i)
		name := strings.TrimSpace(t.Name)
		switch {
		case name == "":
			return invalid("executable name cannot be empty", field+".name", t.Name)
		case strings.ContainsAny(name, `/\`), name == ".", name == "..":
			return invalid(fmt.Sprintf("executable name %q must be a plain file name", name), field+".name", t.Name)
		case seen[name]:
			return invalid(fmt.Sprintf("duplicate executable name: %s", name), field+".name", t.Name)
		}
		seen[name] = true

		if len(t.Src) == 0 {
			return invalid(fmt.Sprintf("executable %s has no source directories", name), field+".src", "")
		}
		for j, o := range t.Options {
			if strings.TrimSpace(o.Key) == "" {
				return invalid(fmt.Sprintf("executable %s has an option without a key", name), fmt.Sprintf("%s.options[%d]", field, j), "")
			}
		}
	}
	return nil
}

func (v *projectValidator) validateNotify() error {
	n := v.project.Notify
	if n.Retries != nil && *n.Retries < 0 {
		return invalid("notify retries cannot be negative", "notify.retries", strconv.Itoa(*n.Retries))
	}
	if _, err := retry.ParseMode(n.Backoff); err != nil {
		return invalid(fmt.Sprintf("unknown notify backoff %q", n.Backoff), "notify.backoff", n.Backoff)
	}
	return nil
}

func invalid(msg, field, value string) error {
	return ferrors.ValidationError(msg).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}
