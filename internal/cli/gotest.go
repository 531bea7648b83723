package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/goldtest/internal/errors"
	"github.com/AndreyAkinshin/goldtest/internal/testparser"
)

// goTestOptions holds the flags shared by gen and verify.
type goTestOptions struct {
	run string
}

func newGenCmd(a *app) *cobra.Command {
	var opts goTestOptions
	cmd := &cobra.Command{
		Use:   "gen [packages...]",
		Short: "Regenerate golds by running go test in generation mode",
		Long: `Run go test with the generation switch set. Every gold check captures its
value twice, wildcards the values that changed between the captures and
writes the result. Packages default to golds.packages of the configuration.`,
		Example: examples(
			example("regenerate", "every gold of the module", "goldtest gen"),
			example("regenerate", "the golds of one test", "goldtest gen --run TestParser ./internal/parser"),
		),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGoTest(cmd.Context(), args, opts, true)
		},
	}
	cmd.Flags().StringVar(&opts.run, "run", "", "run only tests matching the regular expression")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	var opts goTestOptions
	cmd := &cobra.Command{
		Use:   "verify [packages...]",
		Short: "Run go test against the existing golds",
		Long: `Run go test with the generation switch cleared and summarize the result,
listing the golds that failing tests reported.`,
		Example: example("verify", "every gold of the module", "goldtest verify"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGoTest(cmd.Context(), args, opts, false)
		},
	}
	cmd.Flags().StringVar(&opts.run, "run", "", "run only tests matching the regular expression")
	return cmd
}

func (a *app) runGoTest(ctx context.Context, packages []string, opts goTestOptions, generate bool) error {
	proj, err := a.project()
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		packages = proj.Config.Golds.Packages
	}

	args := []string{"test", "-json", "-count=1"}
	if opts.run != "" {
		args = append(args, "-run", opts.run)
	}
	args = append(args, packages...)

	switchValue := ""
	if generate {
		switchValue = "1"
	}
	env := []string{proj.Config.Generation.EnvVar + "=" + switchValue}

	a.logger.Debug("running go test", "dir", proj.Root, "args", args, "env", env)
	stdout, runErr := a.goTest(ctx, proj.Root, env, args)

	counts := (&testparser.JSONParser{}).Parse(string(stdout))
	if !counts.Parsed {
		if runErr != nil {
			return errors.Environmentf("go test failed: %v", runErr)
		}
		return errors.New("no test results found in go test output")
	}

	title := "Verification Summary"
	if generate {
		title = "Generation Summary"
	}
	a.printTestSummary(&counts, title)
	if counts.Failed > 0 {
		return &exitError{code: errors.ExitFailure}
	}
	if generate {
		a.out.Hint("Review the regenerated golds before committing them.")
	}
	return nil
}

// runGo runs the go binary on PATH.
func runGo(ctx context.Context, dir string, env, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return out, err
}

func newSummaryCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "summary [file]",
		Short: "Summarize go test output",
		Long: `Parse go test output, plain or -json, from a file or standard input and
print the counts, the failed tests and the golds they reported.`,
		Example: examples(
			example("summarize", "a saved CI log", "goldtest summary test.log"),
			example("pipe", "go test output through the summary", "go test -json ./... | goldtest summary"),
		),
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := ""
			if len(args) == 1 {
				src = args[0]
			}
			return a.runSummary(src, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "output format: go or go-json (default: detected)")
	return cmd
}

func (a *app) runSummary(src, format string) error {
	var text string
	if src == "" || src == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return errors.Environmentf("failed to read standard input: %v", err)
		}
		text = string(data)
	} else {
		var err error
		if text, err = a.readFile(src); err != nil {
			return err
		}
	}

	registry := testparser.NewRegistry()
	parser := registry.Detect(text)
	if format != "" {
		if parser = registry.GetParser(format); parser == nil {
			return errors.Configf("unknown output format %q", format)
		}
	}
	a.logger.Debug("parsing test output", "parser", parser.Name())

	counts := parser.Parse(text)
	if !counts.Parsed {
		return errors.New("no test results found in input\n  hint: use 'go test -json ./...' to produce parseable output")
	}
	a.printTestSummary(&counts, "Test Summary")
	if counts.Failed > 0 {
		return &exitError{code: errors.ExitFailure}
	}
	return nil
}

// printTestSummary prints counts, failed tests and the golds they reported.
func (a *app) printTestSummary(counts *testparser.TestCounts, title string) {
	a.out.SummaryHeader(title)
	a.out.SummaryPassed("Passed", strconv.Itoa(counts.Passed))
	if counts.Failed > 0 {
		a.out.SummaryFailed("Failed", strconv.Itoa(counts.Failed))
	}
	if counts.Skipped > 0 {
		a.out.SummaryItem("Skipped", strconv.Itoa(counts.Skipped))
	}
	a.out.SummaryItem("Total", strconv.Itoa(counts.Total))

	if len(counts.FailedTests) > 0 {
		a.out.Println("")
		a.out.Println("  Failed tests:")
		for _, ft := range counts.FailedTests {
			name := ft.Name
			if ft.Package != "" {
				name = fmt.Sprintf("%s (%s)", ft.Name, ft.Package)
			}
			a.out.SummaryFailed("  "+name, ft.Reason)
		}
	}

	if golds := counts.Golds(); len(golds) > 0 {
		a.out.Println("")
		a.out.Println("  Golds reported:")
		for _, g := range golds {
			a.out.Println("    %s", g)
		}
	}

	if counts.Failed == 0 {
		a.out.FinalSuccess("All %s passed.", plural(counts.Total, "test"))
	} else {
		a.out.FinalFailure("%d of %s failed.", counts.Failed, plural(counts.Total, "test"))
	}
}
