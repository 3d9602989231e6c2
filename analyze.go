package main

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/phobologic/rotorbench/internal/format"
)

// newAnalyzeCmd implements `rotorbench analyze`, which prints the line
// analysis of each model file given.
func newAnalyzeCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze model...",
		Short: "Print the line analysis of model files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var errs *multierror.Error
			for i, path := range args {
				if i > 0 {
					_, _ = fmt.Fprintln(stdout)
				}
				if err := format.Log(stdout, path); err != nil {
					errs = multierror.Append(errs, err)
				}
			}
			return errs.ErrorOrNil()
		},
	}
}
