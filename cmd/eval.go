// File: cmd/eval.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newEvalCmd evaluates a JavaScript expression in the attached page.
func newEvalCmd() *cobra.Command {
	var awaitPromise bool

	evalCmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluates a JavaScript expression in the page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				res, err := client.Evaluate(ctx, args[0], awaitPromise)
				if err != nil {
					return err
				}
				if res.IsException {
					// Script failures are page results, not tool failures;
					// they surface on stdout with a marker, exit code 0.
					fmt.Fprintf(cmd.OutOrStdout(), "[exception] %s\n", res.Value)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Value)
				return nil
			})
		},
	}

	evalCmd.Flags().BoolVar(&awaitPromise, "await", false, "await the result if the expression yields a promise")
	return evalCmd
}
