// Package cli implements the goldtest command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/goldtest/internal/errors"
	"github.com/AndreyAkinshin/goldtest/internal/output"
	"github.com/AndreyAkinshin/goldtest/internal/project"
	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

// Version is set at build time.
var Version = "dev"

// GoTestFunc runs the go tool in dir with extra environment entries and
// returns its standard output.
type GoTestFunc func(ctx context.Context, dir string, env, args []string) ([]byte, error)

// Env holds the process environment of a CLI run.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Color  bool

	// Dir is the working directory; empty means the process one.
	Dir    string
	// GoTest runs go test; nil runs the go binary on PATH.
	GoTest GoTestFunc
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	ConfigPath string
	Root       string
	Quiet      bool
	Verbose    bool
	NoColor    bool
}

// app carries the state shared by the commands of one run.
type app struct {
	out    *output.Writer
	stdin  io.Reader
	dir    string
	goTest GoTestFunc
	opts   GlobalOptions
	logger *slog.Logger
	proj   *project.Project
}

// exitError ends a command with a status whose cause was already reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	w := output.New()
	return RunEnv(context.Background(), args, Env{
		Stdin:  os.Stdin,
		Stdout: w.Out(),
		Stderr: w.Err(),
		Color:  w.Color(),
	})
}

// RunEnv executes the CLI in env and returns an exit code.
func RunEnv(ctx context.Context, args []string, env Env) int {
	a := &app{
		out:    output.NewWithWriters(env.Stdout, env.Stderr, env.Color),
		stdin:  env.Stdin,
		dir:    env.Dir,
		goTest: env.GoTest,
		logger: newLogger(env.Stderr, false, false),
	}
	if a.stdin == nil {
		a.stdin = os.Stdin
	}
	if a.goTest == nil {
		a.goTest = runGo
	}
	if a.dir == "" {
		if cwd, err := os.Getwd(); err == nil {
			a.dir = cwd
		}
	}
	return a.execute(ctx, args)
}

func (a *app) execute(ctx context.Context, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.out.Out())
	root.SetErr(a.out.Err())

	err := root.ExecuteContext(ctx)
	if err == nil {
		return errors.ExitSuccess
	}

	var exit *exitError
	if stderrors.As(err, &exit) {
		return exit.code
	}

	err = errors.FromGold(err)
	var ge *errors.GoldtestError
	if !stderrors.As(err, &ge) || ge.Kind != errors.KindMismatch {
		a.out.ErrorPrefix("%v", err)
	}
	return errors.GetExitCode(err)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "goldtest",
		Short: "Inspect and maintain gold files",
		Long: `goldtest compares test results with canonical gold files.

Golds live under <package>/testdata/golds/<Class>/<Test>/<name>.json. Tests
written with pkg/gold verify against them; running the tests with the
generation switch set captures them twice and wildcards every value that
changed between the two captures.`,
		Example: examples(
			example("compare", "a fresh result with its gold", "goldtest diff testdata/golds/Parser/Simple/output.json out.json"),
			example("regenerate", "every gold of the module", "goldtest gen ./..."),
			example("check", "that every gold is canonical", "goldtest lint"),
		),
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          usageArgs(cobra.NoArgs),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetVersionTemplate("goldtest {{.Version}}\n")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Configf("%v\nRun '%s --help' for usage.", err, cmd.CommandPath())
	})

	f := root.PersistentFlags()
	f.StringVar(&a.opts.ConfigPath, "config", "", "configuration file (default: discovered .goldtest/config.json or config.yaml)")
	f.StringVar(&a.opts.Root, "root", "", "golds root to operate on (default: every golds root of the project)")
	f.BoolVarP(&a.opts.Quiet, "quiet", "q", false, "minimal output (errors only)")
	f.BoolVarP(&a.opts.Verbose, "verbose", "v", false, "maximum detail")
	f.BoolVar(&a.opts.NoColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newDiffCmd(a),
		newEncodeCmd(a),
		newReconcileCmd(a),
		newListCmd(a),
		newLintCmd(a),
		newGenCmd(a),
		newVerifyCmd(a),
		newSummaryCmd(a),
		newDBCmd(a),
		newVersionCmd(a),
	)
	return root
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return errors.Configf("%v\nRun '%s --help' for usage.", err, cmd.CommandPath())
		}
		return nil
	}
}

// setup applies global options before any command runs.
func (a *app) setup() error {
	if a.opts.Quiet && a.opts.Verbose {
		return errors.Config("--quiet and --verbose are mutually exclusive")
	}
	a.out.SetQuiet(a.opts.Quiet)
	if a.opts.NoColor {
		a.out.SetColor(false)
	}
	a.logger = newLogger(a.out.Err(), a.opts.Quiet, a.opts.Verbose)
	return nil
}

// newLogger builds the diagnostics logger. Warnings are shown by default,
// debug records with -v, errors only with -q.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// project loads the project enclosing the working directory once.
func (a *app) project() (*project.Project, error) {
	if a.proj != nil {
		return a.proj, nil
	}

	var (
		proj *project.Project
		err  error
	)
	if a.opts.ConfigPath != "" {
		proj, err = project.LoadProjectWithConfig(a.configRoot(), a.abs(a.opts.ConfigPath))
	} else {
		proj, err = project.LoadProjectIn(a.dir)
	}
	if err != nil {
		return nil, &errors.GoldtestError{Kind: errors.KindConfig, Message: err.Error(), Cause: err}
	}

	for _, w := range proj.Warnings {
		a.out.Warning("%s", w)
	}
	if !a.opts.NoColor && proj.Config.Output.Color != nil {
		a.out.SetColor(*proj.Config.Output.Color)
	}
	a.logger.Debug("project loaded", "root", proj.Root, "config", proj.ConfigPath())
	a.proj = proj
	return proj, nil
}

// configRoot returns the project root for an explicit --config path: the
// parent of its .goldtest directory, or the working directory.
func (a *app) configRoot() string {
	dir := filepath.Dir(a.abs(a.opts.ConfigPath))
	if filepath.Base(dir) == project.ConfigDirName {
		return filepath.Dir(dir)
	}
	return a.dir
}

// codec returns the codec configured for the project.
func (a *app) codec() (*gold.Codec, error) {
	proj, err := a.project()
	if err != nil {
		return nil, err
	}
	return proj.Config.Codec(), nil
}

// goldRoots returns the golds roots a command operates on.
func (a *app) goldRoots() ([]string, error) {
	if a.opts.Root != "" {
		return []string{a.abs(a.opts.Root)}, nil
	}
	proj, err := a.project()
	if err != nil {
		return nil, err
	}
	roots, err := proj.GoldRoots()
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to discover golds roots: %v", err))
	}
	return roots, nil
}

// abs resolves p against the working directory.
func (a *app) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.dir, p)
}

// rel shortens p for display when it lies under the working directory.
func (a *app) rel(p string) string {
	r, err := filepath.Rel(a.dir, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return p
	}
	return r
}

// readFile returns the text of a file addressed on the command line.
func (a *app) readFile(p string) (string, error) {
	abs := a.abs(p)
	return gold.NewDirStore(filepath.Dir(abs)).ReadFile(filepath.Base(abs))
}

// writeFile replaces a file addressed on the command line.
func (a *app) writeFile(p, text string) error {
	abs := a.abs(p)
	return gold.NewDirStore(filepath.Dir(abs)).WriteFile(filepath.Base(abs), text)
}

// decodeFile reads and decodes a gold file.
func (a *app) decodeFile(codec *gold.Codec, p string) (any, error) {
	text, err := a.readFile(p)
	if err != nil {
		return nil, err
	}
	return decodeText(codec, p, text)
}

// decodeText decodes the text of the gold file at p.
func decodeText(codec *gold.Codec, p, text string) (any, error) {
	v, err := codec.Decode(text)
	if err != nil {
		var parseErr *gold.ParseError
		if stderrors.As(err, &parseErr) {
			parseErr.Path = p
		}
		return nil, err
	}
	return v, nil
}
