package cli

import (
	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/goldtest/internal/errors"
)

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <expected> <actual>",
		Short: "Show the difference between two gold files",
		Long: `Decode both files, mask every wildcarded position of the expected side
and print an annotated unified diff. Exits with status 1 when they differ.`,
		Example: example("compare", "a fresh result with its gold", "goldtest diff testdata/golds/Parser/Simple/output.json out.json"),
		Args:    usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDiff(args[0], args[1])
		},
	}
}

func (a *app) runDiff(expectedPath, actualPath string) error {
	codec, err := a.codec()
	if err != nil {
		return err
	}
	expected, err := a.decodeFile(codec, expectedPath)
	if err != nil {
		return err
	}
	actual, err := a.decodeFile(codec, actualPath)
	if err != nil {
		return err
	}

	report, err := codec.Diff(expected, actual)
	if err != nil {
		return err
	}
	if report == nil {
		a.out.Info("No difference.")
		return nil
	}
	a.out.DiffHeader(expectedPath)
	a.out.DiffReport(report)
	return errors.Mismatch(expectedPath)
}

func newEncodeCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Print a gold file in canonical form",
		Long: `Decode a gold file and encode it again: keys sorted, four-space
indentation, wildcards written as "\*". With --write the file is replaced.`,
		Example: examples(
			example("show", "the canonical form", "goldtest encode testdata/golds/Parser/Simple/output.json"),
			example("rewrite", "a hand-edited gold", "goldtest encode --write testdata/golds/Parser/Simple/output.json"),
		),
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEncode(args[0], write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	return cmd
}

func (a *app) runEncode(p string, write bool) error {
	codec, err := a.codec()
	if err != nil {
		return err
	}
	text, err := a.readFile(p)
	if err != nil {
		return err
	}
	tree, err := decodeText(codec, p, text)
	if err != nil {
		return err
	}
	canonical, err := codec.Encode(tree)
	if err != nil {
		return err
	}

	if !write {
		a.out.Print("%s", canonical)
		return nil
	}
	if canonical == text {
		a.out.Info("%s is already canonical", p)
		return nil
	}
	if err := a.writeFile(p, canonical); err != nil {
		return err
	}
	a.out.Info("Rewrote %s", p)
	return nil
}

func newReconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <gold> <fresh>",
		Short: "Wildcard the values that differ between a gold and a fresh capture",
		Long: `Compare a gold with a second capture of the same result and rewrite the
gold with every differing value replaced by a wildcard. This is the second
half of gold generation, usable on captures made outside go test.`,
		Example: example("mask", "timestamps and identifiers that changed between runs", "goldtest reconcile testdata/golds/Api/Create/response.json second.json"),
		Args:    usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReconcile(args[0], args[1])
		},
	}
}

func (a *app) runReconcile(goldPath, freshPath string) error {
	codec, err := a.codec()
	if err != nil {
		return err
	}
	previous, err := a.decodeFile(codec, goldPath)
	if err != nil {
		return err
	}
	fresh, err := a.decodeFile(codec, freshPath)
	if err != nil {
		return err
	}

	merged, report, err := codec.Reconcile(previous, fresh)
	if err != nil {
		return err
	}
	if report == nil {
		a.out.Info("%s: captures agree, nothing to reconcile", goldPath)
		return nil
	}
	a.logger.Debug("captures differ", "gold", goldPath, "report", report.String())

	text, err := codec.Encode(merged)
	if err != nil {
		return err
	}
	if err := a.writeFile(goldPath, text); err != nil {
		return err
	}
	a.out.Info("%s: wildcarded the values that changed", goldPath)
	return nil
}
