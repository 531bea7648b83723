package cli

import (
	stderrors "errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/goldtest/internal/errors"
	"github.com/AndreyAkinshin/goldtest/internal/golds"
	"github.com/AndreyAkinshin/goldtest/pkg/gold"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the golds of the project",
		Long: `List every gold file under the golds roots of the project, grouped by
class and test. Use --root to list a single golds directory.`,
		Example: examples(
			example("list", "every gold of the project", "goldtest list"),
			example("list", "the golds of one package", "goldtest list --root internal/parser/testdata/golds"),
		),
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList()
		},
	}
}

func (a *app) runList() error {
	roots, err := a.goldRoots()
	if err != nil {
		return err
	}

	var rows [][]string
	files := 0
	for _, root := range roots {
		cat := golds.New(gold.NewDirStore(root), golds.WithLogger(a.logger))
		groups, err := cat.Groups()
		if err != nil {
			return err
		}
		for _, g := range groups {
			rows = append(rows, []string{a.rel(root), g.Class, g.Test, strings.Join(g.Subs, ", ")})
			files += len(g.Subs)
		}
	}

	if len(rows) == 0 {
		a.out.Info("No golds found.")
		return nil
	}
	a.out.Table([]string{"Root", "Class", "Test", "Golds"}, rows)
	a.out.Info("")
	a.out.Info("%d gold(s) in %d test(s)", files, len(rows))
	return nil
}

func newLintCmd(a *app) *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check that every gold is well-formed and canonical",
		Long: `Decode every gold file and report the ones that are malformed, empty,
misplaced or not in canonical form. With --fix, non-canonical golds are
rewritten; the remaining issues still fail the command.`,
		Example: examples(
			example("check", "every gold of the project", "goldtest lint"),
			example("rewrite", "non-canonical golds", "goldtest lint --fix"),
		),
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLint(fix)
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "rewrite non-canonical golds in place")
	return cmd
}

func (a *app) runLint(fix bool) error {
	roots, err := a.goldRoots()
	if err != nil {
		return err
	}
	codec, err := a.codec()
	if err != nil {
		return err
	}

	failed := 0
	for _, root := range roots {
		cat := golds.New(gold.NewDirStore(root), golds.WithCodec(codec), golds.WithLogger(a.logger))
		issues, err := cat.Lint()
		if err != nil {
			return err
		}

		if fix {
			fixed, err := cat.Fix(issues)
			if err != nil {
				return err
			}
			for _, f := range fixed {
				a.out.Info("fixed %s", a.rel(filepath.Join(root, filepath.FromSlash(f))))
			}
			issues = unfixable(issues)
		}

		for _, issue := range issues {
			a.out.Errorln("%s: %v", a.rel(filepath.Join(root, filepath.FromSlash(issue.Path))), issueReason(issue.Err))
		}
		failed += len(issues)
	}

	if failed > 0 {
		return errors.Validationf("%s failed lint", plural(failed, "gold"))
	}
	a.out.Info("All golds are canonical.")
	return nil
}

func unfixable(issues []golds.Issue) []golds.Issue {
	var rest []golds.Issue
	for _, issue := range issues {
		if !issue.Fixable() {
			rest = append(rest, issue)
		}
	}
	return rest
}

// issueReason drops the path a parse error repeats.
func issueReason(err error) error {
	var parseErr *gold.ParseError
	if stderrors.As(err, &parseErr) && parseErr.Err != nil {
		return parseErr.Err
	}
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
