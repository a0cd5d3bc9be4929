// luidec - decompiles Havok-script bytecode into Lua-like pseudo-source
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/luidec/decompiler"
	"github.com/chazu/luidec/manifest"
	"github.com/chazu/luidec/pkg/ast"
	"github.com/chazu/luidec/pkg/hks"
	"github.com/chazu/luidec/printer"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("luidec")

// flags holds command line overrides for luidec.toml values.
type flags struct {
	verbose     int
	logFile     string
	outDis      string
	outDec      string
	export      string
	tree        string
	noStructure bool
	noInline    bool
	noUseCounts bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "luidec: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "luidec <file>",
		Short: "Decompile a Havok-script bytecode file",
		Long: `Reads a compiled Havok-script chunk and writes two files: a raw
disassembly listing and the decompiled pseudo-source.

Settings are read from the nearest luidec.toml above the input file;
flags override them.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Anything but a single input is a silent no-op.
			if len(args) != 1 {
				return nil
			}
			cfg, err := loadConfig(cmd, args[0], &f)
			if err != nil {
				return err
			}
			commonlog.Initialize(cfg.Log.Verbosity, cfg.Resolve(cfg.Log.File))
			return run(args[0], cfg)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.Flags().CountVarP(&f.verbose, "verbose", "v", "Increase log verbosity (repeatable)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Write logs to this file instead of stderr")
	cmd.Flags().StringVar(&f.outDis, "out-dis", "", "Disassembly output path")
	cmd.Flags().StringVar(&f.outDec, "out-dec", "", "Decompiled output path")
	cmd.Flags().StringVar(&f.export, "export", "", "Also write the decoded chunk as CBOR to this path")
	cmd.Flags().StringVar(&f.tree, "dump-tree", "", "Also write the decompiled tree to this path")
	cmd.Flags().BoolVar(&f.noStructure, "no-structure", false, "Skip loop recovery")
	cmd.Flags().BoolVar(&f.noInline, "no-inline", false, "Skip register inlining")
	cmd.Flags().BoolVar(&f.noUseCounts, "no-use-counts", false, "Omit use counts on assignment targets")

	return cmd
}

// loadConfig finds luidec.toml for the input and applies flag overrides.
func loadConfig(cmd *cobra.Command, input string, f *flags) (*manifest.Manifest, error) {
	cfg, err := manifest.FindAndLoad(filepath.Dir(input))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = manifest.Default()
	}

	set := cmd.Flags().Changed
	if set("verbose") {
		cfg.Log.Verbosity += f.verbose
	}
	if set("log-file") {
		cfg.Log.File = f.logFile
	}
	if set("out-dis") {
		cfg.Output.Disassembly = f.outDis
	}
	if set("out-dec") {
		cfg.Output.Decompiled = f.outDec
	}
	if set("export") {
		cfg.Output.Export = f.export
	}
	if set("dump-tree") {
		cfg.Output.Tree = f.tree
	}
	if f.noStructure {
		cfg.Decompile.Structure = false
	}
	if f.noInline {
		cfg.Decompile.Inline = false
	}
	if f.noUseCounts {
		cfg.Print.ShowUseCounts = false
	}
	return cfg, nil
}

// outputs holds everything produced for one input before any of it is
// written.
type outputs struct {
	listing string
	source  string
	export  []byte
	tree    string
}

// process decodes and decompiles data according to cfg.
func process(data []byte, cfg *manifest.Manifest) (*outputs, error) {
	file, err := hks.Decode(data)
	if err != nil {
		return nil, err
	}
	log.Debugf("decoded %d functions", file.FunctionCount())

	out := &outputs{listing: file.Listing()}

	chunk, err := decompiler.Decompile(file, decompiler.Options{
		Structure: cfg.Decompile.Structure,
		Inline:    cfg.Decompile.Inline,
	})
	if err != nil {
		return nil, err
	}
	out.source = printer.Print(chunk, printer.Config{ShowUseCounts: cfg.Print.ShowUseCounts})

	if cfg.Output.Export != "" {
		if out.export, err = hks.MarshalFile(file); err != nil {
			return nil, fmt.Errorf("failed to export: %w", err)
		}
	}
	if cfg.Output.Tree != "" {
		out.tree = ast.Dump(chunk)
	}
	return out, nil
}

func run(input string, cfg *manifest.Manifest) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	out, err := process(data, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{cfg.Output.Disassembly, []byte(out.listing)},
		{cfg.Output.Decompiled, []byte(out.source)},
		{cfg.Output.Export, out.export},
		{cfg.Output.Tree, []byte(out.tree)},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		path := cfg.Resolve(f.path)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return err
		}
		log.Infof("wrote %s (%d bytes)", path, len(f.data))
	}
	return nil
}
