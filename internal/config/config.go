// Package config reads the engine's TOML configuration file, grounded on
// golang-dep's registryConfig reader (toml.Unmarshal into a raw struct,
// wrapped with github.com/pkg/errors).
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// FileName is the conventional name of the engine's config file.
const FileName = "distcheck.toml"

// DefaultIterationBudget is the solver's hard-coded iteration cap from the
// spec, exposed here as a configurable default (spec's Open Questions note
// that the constant should be configuration, not compiled in).
const DefaultIterationBudget = 10000000

// Kind indexes the four dependency lists a Package carries.
type Kind int

const (
	PreDepends Kind = iota
	Depends
	Recommends
	Suggests
	numKinds
)

// Config holds the tunables that govern a solve/mutation run.
type Config struct {
	// IterationBudget bounds the solver's main loop (spec §4.3).
	IterationBudget int

	// ActiveKinds lists which of the four dependency kinds participate in
	// installability. Only Pre-Depends and Depends are active by default;
	// Recommends and Suggests are parsed but inert per spec §3.
	ActiveKinds [numKinds]bool

	// Arches lists the architectures a catalogue covers.
	Arches []string

	// ArenaChunkBytes overrides the solver's arena block size (0 keeps the
	// arena package's own default). Handy for tests that want to exercise
	// multi-block behavior cheaply without allocating real multi-megabyte
	// blocks.
	ArenaChunkBytes int
}

type rawConfig struct {
	Solver struct {
		IterationBudget int      `toml:"iteration_budget"`
		ActiveKinds     []string `toml:"active_kinds"`
	} `toml:"solver"`
	Catalogue struct {
		Arches []string `toml:"arches"`
	} `toml:"catalogue"`
	Arena struct {
		ChunkBytes int `toml:"chunk_bytes"`
	} `toml:"arena"`
}

// Default returns the configuration an engine run uses when no config file
// is present.
func Default() *Config {
	return &Config{
		IterationBudget: DefaultIterationBudget,
		ActiveKinds:     [numKinds]bool{PreDepends: true, Depends: true},
	}
}

// Read parses a distcheck.toml document from r, starting from Default()
// and overriding only the fields present.
func Read(r io.Reader) (*Config, error) {
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, errors.Wrap(err, "unable to read config stream")
	}

	var raw rawConfig
	if err := toml.Unmarshal(buf.Bytes(), &raw); err != nil {
		return nil, errors.Wrap(err, "unable to parse config as TOML")
	}

	cfg := Default()
	if raw.Solver.IterationBudget > 0 {
		cfg.IterationBudget = raw.Solver.IterationBudget
	}
	if len(raw.Solver.ActiveKinds) > 0 {
		cfg.ActiveKinds = [numKinds]bool{}
		for _, k := range raw.Solver.ActiveKinds {
			kind, err := ParseKind(k)
			if err != nil {
				return nil, err
			}
			cfg.ActiveKinds[kind] = true
		}
	}
	if len(raw.Catalogue.Arches) > 0 {
		cfg.Arches = raw.Catalogue.Arches
	}
	if raw.Arena.ChunkBytes > 0 {
		cfg.ArenaChunkBytes = raw.Arena.ChunkBytes
	}
	return cfg, nil
}

// ReadFile opens and parses path, or returns Default() unchanged if path
// does not exist.
func ReadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	cfg, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return cfg, nil
}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "pre-depends":
		return PreDepends, nil
	case "depends":
		return Depends, nil
	case "recommends":
		return Recommends, nil
	case "suggests":
		return Suggests, nil
	default:
		return 0, errors.Errorf("unknown dependency kind %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case PreDepends:
		return "Pre-Depends"
	case Depends:
		return "Depends"
	case Recommends:
		return "Recommends"
	case Suggests:
		return "Suggests"
	default:
		return "unknown"
	}
}
