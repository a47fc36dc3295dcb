package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/cbuild/internal/retry"
	"git.home.luguber.info/inful/cbuild/internal/toolchain"
)

// Project is the parsed, validated description of one cbuild project.
// It is read-only once Load returns.
type Project struct {
	Name      string        `json:"name" yaml:"name"`
	Version   string        `json:"version" yaml:"version"`
	Toolchain string        `json:"compiler,omitempty" yaml:"compiler,omitempty"`
	Build     BuildConfig   `json:"build" yaml:"build"`
	Targets   []Target      `json:"executable" yaml:"executable"`
	History   HistoryConfig `json:"history,omitzero" yaml:"history,omitempty"`
	Notify    NotifyConfig  `json:"notify,omitzero" yaml:"notify,omitempty"`
}

// BuildConfig holds build output settings.
type BuildConfig struct {
	// Dir receives object files and executables. Defaults to "build".
	Dir string `json:"dir" yaml:"dir"`
}

// Target describes one executable.
type Target struct {
	// Name is also the executable file name inside the build directory.
	Name    string   `json:"name" yaml:"name"`
	Src     []string `json:"src" yaml:"src"`
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Flags   []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
	// Packages is informational; cbuild does not resolve packages.
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"`
}

// Option is a key/value build option rendered as a preprocessor define.
type Option struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// HistoryConfig enables the SQLite build history when Path is set.
type HistoryConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// NotifyConfig enables NATS build notifications when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`
	// Retries bounds redelivery after a failed publish; nil keeps the default.
	Retries *int `json:"retries,omitempty" yaml:"retries,omitempty"`
	// Backoff is fixed, linear or exponential. Empty means linear.
	Backoff string `json:"backoff,omitempty" yaml:"backoff,omitempty"`
}

// ToolchainSpec returns the toolchain the project compiles with.
func (p *Project) ToolchainSpec() toolchain.Toolchain {
	return toolchain.New(p.Toolchain)
}

// RetryPolicy is the redelivery policy for build notifications. Invalid
// settings, which Validate rejects, fall back to the defaults.
func (n NotifyConfig) RetryPolicy() retry.Policy {
	mode, err := retry.ParseMode(n.Backoff)
	if err != nil {
		mode = retry.ModeLinear
	}
	retries := -1
	if n.Retries != nil {
		retries = *n.Retries
	}
	// Zero delays keep the default step and cap.
	return retry.NewPolicy(mode, 0, 0, retries)
}

// Define renders the option as a -D flag.
func (o Option) Define() string {
	if o.Value == "" {
		return "-D" + o.Key
	}
	return fmt.Sprintf("-D%s=%s", o.Key, o.Value)
}

// CompileFlags returns the raw flags followed by one define per option.
func (t Target) CompileFlags() []string {
	flags := make([]string, 0, len(t.Flags)+len(t.Options))
	for _, f := range t.Flags {
		if f = strings.TrimSpace(f); f != "" {
			flags = append(flags, f)
		}
	}
	for _, o := range t.Options {
		flags = append(flags, o.Define())
	}
	return flags
}
