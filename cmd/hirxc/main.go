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

// hirxc is a thin CLI driver for this module: flag parsing and wiring
// only, no go/ast. It decodes a gob-encoded hir.Crate (the shape a
// Rust-to-C compiler's frontend hands off after parse + resolve + initial
// typecheck, per spec.md §6), runs every middle-end pass over it via
// pipeline.Pipeline, and re-encodes the result.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rlang/hirxc/hirconfig"
	"github.com/rlang/hirxc/hirio"
	"github.com/rlang/hirxc/pipeline"
)

var (
	_cratePath  string
	_outPath    string
	_edition    string
	_pointerBits int
	_bigEndian  bool
	_prettyPrint bool
)

func main() {
	flag.StringVar(&_cratePath, "crate", "-", "path to a gob-encoded input hir.Crate, or - for stdin")
	flag.StringVar(&_outPath, "out", "-", "path to write the gob-encoded expanded hir.Crate, or - for stdout")
	flag.StringVar(&_edition, "edition", "1.54", "target edition gate: one of 1.19, 1.29, 1.39, 1.54")
	flag.IntVar(&_pointerBits, "pointer-bits", 64, "target pointer width in bits")
	flag.BoolVar(&_bigEndian, "big-endian", false, "target is big-endian (default little-endian)")
	flag.BoolVar(&_prettyPrint, "pretty", false, "set Config.PrettyPrint (colorized output; no pass reads it)")
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	edition, err := parseEdition(_edition)
	if err != nil {
		return err
	}

	cfg := hirconfig.Config{
		Target:      hirconfig.DefaultTargetSpec(),
		Edition:     edition,
		PrettyPrint: _prettyPrint,
	}
	cfg.Target.PointerBits = _pointerBits
	if _bigEndian {
		cfg.Target.Endianness = hirconfig.BigEndian
	}

	in, err := openInput(_cratePath)
	if err != nil {
		return fmt.Errorf("hirxc: %w", err)
	}
	defer in.Close()

	crate, err := hirio.Decode(in)
	if err != nil {
		return fmt.Errorf("hirxc: decode crate: %w", err)
	}

	log.Printf("hirxc: running pipeline (edition=%s, pointer-bits=%d)", _edition, cfg.Target.PointerBits)
	if err := pipeline.New(crate, cfg).Run(); err != nil {
		return fmt.Errorf("hirxc: %w", err)
	}

	out, err := openOutput(_outPath)
	if err != nil {
		return fmt.Errorf("hirxc: %w", err)
	}
	defer out.Close()

	if err := hirio.Encode(out, crate); err != nil {
		return fmt.Errorf("hirxc: encode crate: %w", err)
	}
	return nil
}

func parseEdition(s string) (hirconfig.Edition, error) {
	switch s {
	case "1.19":
		return hirconfig.Edition1_19, nil
	case "1.29":
		return hirconfig.Edition1_29, nil
	case "1.39":
		return hirconfig.Edition1_39, nil
	case "1.54":
		return hirconfig.Edition1_54, nil
	default:
		return 0, fmt.Errorf("hirxc: unknown -edition %q (want one of 1.19, 1.29, 1.39, 1.54)", s)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
