package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/rubiojr/cppbind/api"
	"github.com/rubiojr/cppbind/bindgen"
	"github.com/rubiojr/cppbind/config"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("cppbind.cmd")

// Execute runs the cppbind CLI with the given version string.
func Execute(version string) {
	if err := newCommand(version).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand(version string) *cli.Command {
	return &cli.Command{
		Name:                   "cppbind",
		Usage:                  "Generate C++ bindings from a C API description",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log classification and generation decisions",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Write C++ bindings for a description",
				ArgsUsage: "[description.toml|description.cbor]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to cppbind.toml (default: search from the current directory)",
					},
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "exceptions, no-exceptions or both",
					},
					&cli.BoolFlag{
						Name:  "no-exceptions",
						Usage: "Report failures through return values instead of exceptions",
					},
					&cli.StringFlag{
						Name:  "namespace",
						Usage: "Enclosing C++ namespace",
					},
					&cli.BoolFlag{
						Name:  "preamble",
						Usage: "Emit header guard, includes and support types",
					},
					&cli.StringSliceFlag{
						Name:  "include",
						Usage: "Header to include in the preamble (repeatable)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: generateAction,
			},
			{
				Name:      "inspect",
				Usage:     "Show how every function of a description is classified",
				ArgsUsage: "<description>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "no-color",
						Aliases: []string{"C"},
						Usage:   "Disable ANSI color output",
					},
				},
				Action: inspectAction,
			},
			{
				Name:      "snapshot",
				Usage:     "Store a description as a canonical CBOR snapshot",
				ArgsUsage: "<description.toml>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Snapshot file",
						Required: true,
					},
				},
				Action: snapshotAction,
			},
		},
	}
}

// setupLogging configures the log backend from the --verbose flag and
// the configured verbosity.
func setupLogging(cmd *cli.Command, verbosity int) {
	if cmd.Bool("verbose") {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
}

// loadConfig reads --config when given, else the nearest cppbind.toml,
// else defaults. Environment overrides are applied last.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := cmd.String("config"); path != "" {
		dir := path
		if filepath.Base(path) == config.FileName {
			dir = filepath.Dir(path)
		}
		cfg, err = config.Load(dir)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd, cfg.Log.Verbosity)

	if cmd.IsSet("mode") {
		cfg.Generate.Mode = cmd.String("mode")
	}
	if cmd.Bool("no-exceptions") {
		cfg.Generate.Mode = "no-exceptions"
	}
	if cmd.IsSet("namespace") {
		cfg.Generate.Namespace = cmd.String("namespace")
	}
	if cmd.Bool("preamble") {
		cfg.Generate.Preamble = true
	}
	if incs := cmd.StringSlice("include"); len(incs) > 0 {
		cfg.Generate.Includes = incs
	}

	path := cfg.DescriptionPath()
	if cmd.NArg() > 0 {
		path = cmd.Args().First()
	}
	if path == "" {
		return fmt.Errorf("usage: cppbind generate [-o output] <description>")
	}
	modes, err := cfg.Modes()
	if err != nil {
		return err
	}

	d, err := api.Load(path)
	if err != nil {
		return err
	}

	var outs []bindgen.Output
	if len(modes) > 1 {
		outs, err = bindgen.GenerateAll(d, cfg.Options(bindgen.ModeExceptions))
		if err != nil {
			return err
		}
	} else {
		text, err := bindgen.Render(d, cfg.Options(modes[0]))
		if err != nil {
			return err
		}
		outs = []bindgen.Output{{Mode: modes[0], Text: text}}
	}

	flagOut := cmd.String("output")
	for _, out := range outs {
		dest := cfg.OutputFor(out.Mode)
		if flagOut != "" {
			dest = flagOut
			if len(outs) > 1 && out.Mode == bindgen.ModeStatusCodes {
				dest = noExceptionsPath(flagOut)
			}
		}
		if err := writeOutput(cmd.Root().Writer, dest, out.Text); err != nil {
			return err
		}
	}
	return nil
}

// noExceptionsPath derives the status-code output file from the
// exceptions one: "isl.h" becomes "isl-noexceptions.h".
func noExceptionsPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-noexceptions" + ext
}

func writeOutput(stdout io.Writer, dest, text string) error {
	if dest == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(dest, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	log.Infof("wrote %s", dest)
	return nil
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, 0)
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: cppbind inspect <description>")
	}
	d, err := api.Load(cmd.Args().First())
	if err != nil {
		return err
	}
	color := !cmd.Bool("no-color") && os.Getenv("NO_COLOR") == "" && isTerminal(cmd.Root().Writer)
	return printClassification(cmd.Root().Writer, d, color)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func snapshotAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd, 0)
	if cmd.NArg() < 1 {
		return fmt.Errorf("usage: cppbind snapshot -o out.cbor <description.toml>")
	}
	doc, err := api.ReadDocument(cmd.Args().First())
	if err != nil {
		return err
	}
	if _, err := api.Resolve(doc); err != nil {
		return err
	}
	out := cmd.String("output")
	if err := api.WriteSnapshot(out, doc); err != nil {
		return err
	}
	log.Infof("wrote snapshot %s", out)
	return nil
}
