package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pylift/pylift/internal/analyzer"
	"github.com/pylift/pylift/internal/bridge"
	"github.com/pylift/pylift/internal/config"
	"github.com/pylift/pylift/internal/parser"
	"github.com/pylift/pylift/internal/pipeline"
	"github.com/pylift/pylift/internal/rustbe"
)

// Version is stamped at build time using:
// -ldflags "-X github.com/pylift/pylift/pkg/cli.Version=v1.2.3"
var Version = "dev"

// Options are the host-level switches parsed from the command line.
// Everything else comes from pylift.yaml.
type Options struct {
	Check   bool // analyze only, write nothing
	Watch   bool
	NoColor bool
	OutDir  string // overrides the configured emit directory
	Files   []string
}

// Entry is the program entry point. It returns the process exit code.
func Entry(args []string) int {
	if handleHelp(args) {
		return 0
	}
	if handleVersion(args) {
		return 0
	}

	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return 2
	}

	cfg, err := loadConfig(opts.Files[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if opts.OutDir != "" {
		cfg.Emit.Dir = opts.OutDir
	}

	p := printer{color: useColor(opts)}

	if opts.Watch {
		return watch(opts, cfg, p)
	}
	return runOnce(opts, cfg, p)
}

func handleHelp(args []string) bool {
	if len(args) == 0 {
		usage(os.Stderr)
		return true
	}
	for _, a := range args {
		if a == "-h" || a == "-help" || a == "--help" || a == "help" {
			usage(os.Stdout)
			return true
		}
	}
	return false
}

func handleVersion(args []string) bool {
	for _, a := range args {
		if a == "-version" || a == "--version" || a == "version" {
			fmt.Printf("pylift %s\n", Version)
			return true
		}
	}
	return false
}

func usage(w *os.File) {
	fmt.Fprintln(w, "Usage: pylift [flags] <file.py> [file2.py ...]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --check        analyze and report diagnostics without writing output")
	fmt.Fprintln(w, "  --watch        re-translate whenever a source file changes")
	fmt.Fprintln(w, "  --out <dir>    write .rs files into <dir> (overrides pylift.yaml)")
	fmt.Fprintln(w, "  --no-color     plain diagnostic output")
	fmt.Fprintln(w, "  --version      print the version and exit")
}

func parseArgs(args []string) (*Options, error) {
	opts := &Options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-check", "--check":
			opts.Check = true
		case "-watch", "--watch":
			opts.Watch = true
		case "-no-color", "--no-color":
			opts.NoColor = true
		case "-out", "--out", "-o":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s needs a directory argument", arg)
			}
			i++
			opts.OutDir = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown flag %s", arg)
			}
			if !strings.HasSuffix(arg, config.SourceFileExt) {
				return nil, fmt.Errorf("%s is not a %s file", arg, config.SourceFileExt)
			}
			opts.Files = append(opts.Files, arg)
		}
	}
	if len(opts.Files) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	return opts, nil
}

// loadConfig finds pylift.yaml next to (or above) the first input file.
// A missing config is not an error; defaults apply.
func loadConfig(firstFile string) (*config.Config, error) {
	dir := filepath.Dir(firstFile)
	path, err := config.Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runOnce(opts *Options, cfg *config.Config, p printer) int {
	exit := 0
	for _, file := range opts.Files {
		if code := translateFile(file, opts, cfg, p); code != 0 {
			exit = code
		}
	}
	return exit
}

// translateFile runs the full pipeline over one source file and, unless
// checking, writes the rendered output next to the configured emit dir.
func translateFile(path string, opts *Options, cfg *config.Config, p printer) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx := pipeline.NewContext(path, string(src))
	pipe := pipeline.New(
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
		rustbe.NewRenderProcessor(),
	)
	ctx = pipe.Run(ctx)

	p.printAll(ctx.Diags.All())
	if ctx.HasErrors() {
		return 1
	}
	if cfg.Strict && ctx.Diags.Len() > 0 {
		fmt.Fprintf(os.Stderr, "strict mode: %d warning(s) treated as errors\n", ctx.Diags.Len())
		return 1
	}
	if opts.Check {
		return 0
	}
	if ctx.Program != nil && ctx.Program.RequiresWorker {
		probeWorker(cfg, ctx.Program.DelegatedModules)
	}

	outPath := emitPath(path, cfg)
	if !cfg.Emit.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(os.Stderr, "%s exists; set emit.overwrite in pylift.yaml to replace it\n", outPath)
			return 1
		}
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := os.WriteFile(outPath, []byte(ctx.RustSource), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	fmt.Printf("%s -> %s\n", path, outPath)
	return 0
}

// probeWorker checks that the configured worker answers the protocol
// handshake and can import the delegated modules. The translated program
// needs a worker at its own runtime; surfacing a broken setup now is
// advisory only and never blocks emission.
func probeWorker(cfg *config.Config, modules []string) {
	client, err := bridge.Dial(cfg.Worker.Command, cfg.Worker.Protocol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "note: worker unavailable (%v); the translated program delegates %s\n",
			err, strings.Join(modules, ", "))
		return
	}
	defer client.Close()
	for _, m := range modules {
		client.Import(m, m)
		if _, berr := client.ResolveModule(m); berr != nil {
			fmt.Fprintf(os.Stderr, "note: worker cannot import %s: %s\n", m, berr.Message)
		}
	}
}

// emitPath maps a source path to its output path under the emit dir.
func emitPath(src string, cfg *config.Config) string {
	base := strings.TrimSuffix(filepath.Base(src), config.SourceFileExt) + ".rs"
	dir := cfg.Emit.Dir
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, base)
}
