// Package manifest handles luidec.toml configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the configuration file.
const FileName = "luidec.toml"

// Manifest represents a luidec.toml configuration.
type Manifest struct {
	Output    Output    `toml:"output"`
	Decompile Decompile `toml:"decompile"`
	Print     Print     `toml:"print"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the luidec.toml file (set at load
	// time). Empty for the built-in defaults.
	Dir string `toml:"-"`
}

// Output names the files written for each input.
type Output struct {
	Disassembly string `toml:"disassembly"`
	Decompiled  string `toml:"decompiled"`
	Export      string `toml:"export"`
	Tree        string `toml:"tree"`
}

// Decompile selects the decompiler passes.
type Decompile struct {
	Structure bool `toml:"structure"`
	Inline    bool `toml:"inline"`
}

// Print configures the pseudo-source printer.
type Print struct {
	ShowUseCounts bool `toml:"show-use-counts"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no luidec.toml exists.
func Default() *Manifest {
	return &Manifest{
		Output: Output{
			Disassembly: "output.dis.lua",
			Decompiled:  "output.dec.lua",
		},
		Decompile: Decompile{Structure: true, Inline: true},
		Print:     Print{ShowUseCounts: true},
	}
}

// Load parses a luidec.toml file from the given directory. Keys missing
// from the file keep their default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a luidec.toml file, then loads
// and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Resolve returns p relative to the manifest's directory. Absolute and
// empty paths, and every path of the built-in defaults, are returned as is.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}
