package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/kharon/index"
	"github.com/wippyai/kharon/marshal"
)

func newIndexCmd(c *cli) *cobra.Command {
	var (
		direction string
		lookups   []string
	)

	cmd := &cobra.Command{
		Use:   "index FILE",
		Short: "Index the declarations of a fixture by path",
		Long: `Resolve every class and enum declared in a YAML fixture and print the
resulting path trie, followed by the declarations that were skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := marshal.ParseDirection(direction)
			if err != nil {
				return err
			}
			fx, s, err := openFixture(c.opts, args[0])
			if err != nil {
				return err
			}
			idx, err := index.Build(s, index.Declarations(fx.TU), dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, idx.Render())
			for _, sk := range idx.Skipped() {
				fmt.Fprintf(out, "skipped %s: %s\n", strings.Join(sk.Path, "::"), sk.Reason)
			}
			for _, name := range lookups {
				path, st, ok := idx.Nearest(strings.Split(name, "::"))
				if !ok {
					fmt.Fprintf(out, "%s -> (none)\n", name)
					continue
				}
				fmt.Fprintf(out, "%s -> %s = %s\n", name, strings.Join(path, "::"), st.Display())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&direction, "direction", "d", marshal.ToNative.String(), "Resolution direction: toNative or fromNative")
	cmd.Flags().StringArrayVar(&lookups, "lookup", nil, "Print the strategy of the nearest indexed declaration enclosing a qualified name (repeatable)")
	return cmd
}
