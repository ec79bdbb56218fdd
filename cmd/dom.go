// File: cmd/dom.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newDOMCmd groups the DOM inspection commands.
func newDOMCmd() *cobra.Command {
	domCmd := &cobra.Command{
		Use:   "dom",
		Short: "Inspects the DOM of the current page",
	}
	domCmd.AddCommand(
		newDOMDocCmd(),
		newDOMQueryCmd(),
		newDOMHTMLCmd(),
		newDOMAttrsCmd(),
	)
	return domCmd
}

func newDOMDocCmd() *cobra.Command {
	var depth int

	docCmd := &cobra.Command{
		Use:   "doc",
		Short: "Dumps the document tree in the protocol's native serialization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				doc, err := client.Document(ctx, depth)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(doc))
				return nil
			})
		},
	}

	docCmd.Flags().IntVarP(&depth, "depth", "d", -1, "tree depth to serialize (-1 for the full tree)")
	return docCmd
}

func newDOMQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <selector>",
		Short: "Lists nodes matching a CSS selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				refs, err := client.QuerySelectorAll(ctx, args[0])
				if err != nil {
					return err
				}
				if len(refs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
					return nil
				}
				for _, ref := range refs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ref.ID, ref.Description)
				}
				return nil
			})
		},
	}
}

func newDOMHTMLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "html <selector>",
		Short: "Prints the outer HTML of the first node matching a selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				html, found, err := client.OuterHTML(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			})
		},
	}
}

func newDOMAttrsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attrs <selector>",
		Short: "Prints the attributes of the first node matching a selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				attrs, found, err := client.Attributes(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
					return nil
				}
				for name, value := range attrs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%q\n", name, value)
				}
				return nil
			})
		},
	}
}
