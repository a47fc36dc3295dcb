package config

import (
	"os"
	"strings"

	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

const (
	DefaultBuildDir      = "build"
	DefaultNotifySubject = "cbuild.builds"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(p *Project)
	Domain() string
}

// ToolchainDefaultApplier picks the compiler: environment override, then config, then gcc.
type ToolchainDefaultApplier struct{}

func (ToolchainDefaultApplier) Domain() string { return "toolchain" }

func (ToolchainDefaultApplier) ApplyDefaults(p *Project) {
	if env := strings.TrimSpace(os.Getenv(EnvToolchain)); env != "" {
		p.Toolchain = env
	}
	if strings.TrimSpace(p.Toolchain) == "" {
		p.Toolchain = toolchain.DefaultName
	}
}

// BuildDefaultApplier handles Build configuration defaults.
type BuildDefaultApplier struct{}

func (BuildDefaultApplier) Domain() string { return "build" }

func (BuildDefaultApplier) ApplyDefaults(p *Project) {
	if strings.TrimSpace(p.Build.Dir) == "" {
		p.Build.Dir = DefaultBuildDir
	}
}

// NotifyDefaultApplier fills the subject when notifications are enabled.
type NotifyDefaultApplier struct{}

func (NotifyDefaultApplier) Domain() string { return "notify" }

func (NotifyDefaultApplier) ApplyDefaults(p *Project) {
	if p.Notify.NATSURL != "" && p.Notify.Subject == "" {
		p.Notify.Subject = DefaultNotifySubject
	}
}

var defaultAppliers = []DefaultApplier{
	ToolchainDefaultApplier{},
	BuildDefaultApplier{},
	NotifyDefaultApplier{},
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(p *Project) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(p)
	}
}
