package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// hclProject mirrors Project in HCL block form:
//
//	name     = "demo"
//	version  = "0.1.0"
//	compiler = "gcc"
//	build { dir = "build" }
//	executable "app" {
//	  src     = ["src"]
//	  include = ["include"]
//	  option "DEBUG" { value = "1" }
//	}
type hclProject struct {
	Name     string      `hcl:"name,attr"`
	Version  string      `hcl:"version,attr"`
	Compiler string      `hcl:"compiler,optional"`
	Build    *hclBuild   `hcl:"build,block"`
	Targets  []hclTarget `hcl:"executable,block"`
	History  *hclHistory `hcl:"history,block"`
	Notify   *hclNotify  `hcl:"notify,block"`
}

type hclBuild struct {
	Dir string `hcl:"dir,optional"`
}

type hclTarget struct {
	Name     string      `hcl:"name,label"`
	Src      []string    `hcl:"src,attr"`
	Include  []string    `hcl:"include,optional"`
	Flags    []string    `hcl:"flags,optional"`
	Options  []hclOption `hcl:"option,block"`
	Packages []string    `hcl:"packages,optional"`
}

type hclOption struct {
	Key   string `hcl:"key,label"`
	Value string `hcl:"value,optional"`
}

type hclHistory struct {
	Path string `hcl:"path,attr"`
}

type hclNotify struct {
	NATSURL string `hcl:"nats_url,attr"`
	Subject string `hcl:"subject,optional"`
	Retries *int   `hcl:"retries,optional"`
	Backoff string `hcl:"backoff,optional"`
}

func decodeHCL(data []byte, filename string) (*Project, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var raw hclProject
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}
	return raw.project(), nil
}

func (h *hclProject) project() *Project {
	p := &Project{
		Name:      h.Name,
		Version:   h.Version,
		Toolchain: h.Compiler,
	}
	if h.Build != nil {
		p.Build.Dir = h.Build.Dir
	}
	if h.History != nil {
		p.History.Path = h.History.Path
	}
	if h.Notify != nil {
		p.Notify = NotifyConfig(*h.Notify)
	}
	for _, t := range h.Targets {
		target := Target{
			Name:     t.Name,
			Src:      t.Src,
			Include:  t.Include,
			Flags:    t.Flags,
			Packages: t.Packages,
		}
		for _, o := range t.Options {
			target.Options = append(target.Options, Option{Key: o.Key, Value: o.Value})
		}
		p.Targets = append(p.Targets, target)
	}
	return p
}

func encodeHCL(p *Project) []byte {
	h := hclProject{
		Name:     p.Name,
		Version:  p.Version,
		Compiler: p.Toolchain,
		Build:    &hclBuild{Dir: p.Build.Dir},
	}
	if p.History.Path != "" {
		h.History = &hclHistory{Path: p.History.Path}
	}
	if p.Notify.NATSURL != "" {
		n := hclNotify(p.Notify)
		h.Notify = &n
	}
	for _, t := range p.Targets {
		ht := hclTarget{
			Name:     t.Name,
			Src:      nonNil(t.Src),
			Include:  nonNil(t.Include),
			Flags:    nonNil(t.Flags),
			Packages: nonNil(t.Packages),
		}
		for _, o := range t.Options {
			ht.Options = append(ht.Options, hclOption{Key: o.Key, Value: o.Value})
		}
		h.Targets = append(h.Targets, ht)
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(&h, f.Body())
	return f.Bytes()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
