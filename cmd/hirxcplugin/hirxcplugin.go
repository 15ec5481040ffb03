// Copyright (c) 2024 The HIRXC Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hirxcplugin registers the HIR middle-end pipeline as a
// golangci-lint module plugin (https://golangci-lint.run/plugins/module-plugins/),
// mirroring cmd/gclplugin's registration shape, so an external build
// system or IDE host that already knows how to load a plugin-module-register
// plugin can load this pipeline the same way without needing its own
// main().
//
// This is an unusual tenant of that interface: an analysis.Analyzer
// normally inspects the Go source of the package being linted. This one
// never touches pass.Files/pass.TypesInfo at all — it treats
// analysis.Pass purely as a diagnostic transport (the same narrow slice
// of golang.org/x/tools/go/analysis the rest of this module reuses, see
// DESIGN.md), decoding and expanding the hir.Crate named in its settings
// instead. GetLoadMode reports LoadModeSyntax, the cheapest mode
// plugin-module-register offers, since no Go type information is ever
// consulted.
package hirxcplugin

import (
	"fmt"
	"os"
	"strconv"

	"github.com/golangci/plugin-module-register/register"
	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/hirio"
	"github.com/rlang/hirxc/pipeline"
	"golang.org/x/tools/go/analysis"
)

func init() {
	register.Plugin("hirxc", New)
}

// New returns the plugin wrapping the HIR middle-end pipeline.
func New(settings any) (register.LinterPlugin, error) {
	s, ok := settings.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expect hirxc's configuration to be a map from string to string (similar to command line flags), got %T", settings)
	}
	conf := make(map[string]string, len(s))
	for k, v := range s {
		vStr, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expect hirxc's configuration value for %q to be a string, got %T", k, v)
		}
		conf[k] = vStr
	}
	return &Plugin{conf: conf}, nil
}

// Plugin is the hirxc plugin wrapper for golangci-lint's module-plugin host.
type Plugin struct {
	conf map[string]string
}

// BuildAnalyzers returns a single analysis.Analyzer whose Run method
// decodes the crate named by the "crate-path" setting, runs every
// middle-end pass over it, and re-encodes the result back to
// "out-path" (both gob-encoded, see cmd/hirxc's codec for the same
// wire format).
func (p *Plugin) BuildAnalyzers() ([]*analysis.Analyzer, error) {
	cratePath := p.conf["crate-path"]
	if cratePath == "" {
		return nil, fmt.Errorf("hirxc plugin: missing required %q setting", "crate-path")
	}
	outPath := p.conf["out-path"]
	if outPath == "" {
		outPath = cratePath
	}

	cfg, err := p.config()
	if err != nil {
		return nil, err
	}

	return []*analysis.Analyzer{{
		Name: "hirxc",
		Doc:  "expands a HIR crate through trait resolution's downstream passes: constant evaluation, usage annotation, closure/generator lowering, erased-type substitution, static-borrow promotion, reborrow insertion, UFCS rewriting, vtable synthesis, and lifetime inference.",
		Run: func(*analysis.Pass) (any, error) {
			return nil, runOnFile(cratePath, outPath, cfg)
		},
	}}, nil
}

// GetLoadMode reports that this plugin never needs Go type information.
func (p *Plugin) GetLoadMode() string { return register.LoadModeSyntax }

func (p *Plugin) config() (hirconfig.Config, error) {
	cfg := hirconfig.Default()
	if e, ok := p.conf["edition"]; ok {
		switch e {
		case "1.19":
			cfg.Edition = hirconfig.Edition1_19
		case "1.29":
			cfg.Edition = hirconfig.Edition1_29
		case "1.39":
			cfg.Edition = hirconfig.Edition1_39
		case "1.54":
			cfg.Edition = hirconfig.Edition1_54
		default:
			return cfg, fmt.Errorf("hirxc plugin: unknown edition %q", e)
		}
	}
	if b, ok := p.conf["pointer-bits"]; ok {
		bits, err := strconv.Atoi(b)
		if err != nil {
			return cfg, fmt.Errorf("hirxc plugin: pointer-bits: %w", err)
		}
		cfg.Target.PointerBits = bits
	}
	return cfg, nil
}

func runOnFile(cratePath, outPath string, cfg hirconfig.Config) error {
	f, err := os.Open(cratePath)
	if err != nil {
		return fmt.Errorf("hirxc plugin: open %s: %w", cratePath, err)
	}
	crate, err := hirio.Decode(f)
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("hirxc plugin: decode %s: %w", cratePath, err)
	}
	if closeErr != nil {
		return fmt.Errorf("hirxc plugin: close %s: %w", cratePath, closeErr)
	}

	if err := pipeline.New(crate, cfg).Run(); err != nil {
		return fmt.Errorf("hirxc plugin: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("hirxc plugin: create %s: %w", outPath, err)
	}
	err = hirio.Encode(out, crate)
	closeErr = out.Close()
	if err != nil {
		return fmt.Errorf("hirxc plugin: encode %s: %w", outPath, err)
	}
	if closeErr != nil {
		return fmt.Errorf("hirxc plugin: close %s: %w", outPath, closeErr)
	}
	return nil
}
