package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/kharon/errors"
	"github.com/wippyai/kharon/trie"
)

func newTrieCmd() *cobra.Command {
	var nearest []string

	cmd := &cobra.Command{
		Use:   "trie [FILE]",
		Short: "Build a segment trie from path=value lines",
		Long: `Build a segment trie from lines of the form a/b/c=value and print it.
Blank lines and lines starting with # are ignored. Reads stdin when FILE
is omitted or "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			t, err := readTrie(in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, t.Render())
			for _, q := range nearest {
				path, value, ok := t.LongestPrefix(splitPath(q))
				if !ok {
					fmt.Fprintf(out, "%s -> (none)\n", q)
					continue
				}
				fmt.Fprintf(out, "%s -> %s = %s\n", q, strings.Join(path, "/"), value)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&nearest, "nearest", nil, "Print the longest stored prefix of a path (repeatable)")
	return cmd
}

func readTrie(r io.Reader) (*trie.Trie[string, string], error) {
	t := trie.New[string, string]()
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
				Detail("line %d: missing '='", line).
				Build()
		}
		if err := t.Insert(splitPath(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Load("read trie input", err)
	}
	return t, nil
}

func splitPath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}
