package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the goldtest version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.out.Println("goldtest %s", Version)
			if a.opts.Verbose {
				a.out.Println("go: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
	}
}
