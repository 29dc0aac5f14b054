package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/kharon/cxx"
	"github.com/wippyai/kharon/cxx/tree"
	"github.com/wippyai/kharon/marshal"
)

type resolution struct {
	strategy marshal.Strategy
	query    tree.Query
	reason   marshal.MissReason
}

// methodReport is a method's resolved result and parameters along with the
// number of arguments a caller must pass.
type methodReport struct {
	method   tree.Method
	result   resolution
	params   []resolution
	required int
}

type report struct {
	file    string
	name    string
	rows    []resolution
	methods []methodReport
	session marshal.Snapshot
}

// openFixture loads path and binds its bound classes in a fresh session.
func openFixture(opts marshal.Options, path string) (*tree.Fixture, *marshal.Session, error) {
	fx, err := tree.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	s := marshal.NewSession(opts)
	for _, d := range fx.Bound {
		if _, err := s.RegisterDecl(d); err != nil {
			return nil, nil, err
		}
	}
	return fx, s, nil
}

func resolveFixture(opts marshal.Options, path string) (*report, error) {
	fx, s, err := openFixture(opts, path)
	if err != nil {
		return nil, err
	}

	rep := &report{file: path, name: fx.Name}
	for _, q := range fx.Queries {
		row, err := resolveQuery(s, q)
		if err != nil {
			return nil, err
		}
		rep.rows = append(rep.rows, row)
	}
	for _, m := range fx.Methods {
		mr, err := resolveMethod(s, m)
		if err != nil {
			return nil, err
		}
		rep.methods = append(rep.methods, mr)
	}
	rep.session = s.Snapshot()
	return rep, nil
}

func resolveQuery(s *marshal.Session, q tree.Query) (resolution, error) {
	dir, err := marshal.ParseDirection(q.Direction)
	if err != nil {
		return resolution{}, err
	}
	st, reason := s.Explain(q.Type, dir, q.Param)
	return resolution{query: q, strategy: st, reason: reason}, nil
}

// resolveMethod resolves the result toNative and every parameter
// fromNative. Void results are not resolved.
func resolveMethod(s *marshal.Session, m tree.Method) (methodReport, error) {
	mr := methodReport{
		method:   m,
		result:   resolution{query: m.Result},
		required: cxx.GuessRequiredArgs(m.Decl),
	}
	if m.Result.Type.Kind() != cxx.TypeVoid {
		res, err := resolveQuery(s, m.Result)
		if err != nil {
			return mr, err
		}
		mr.result = res
	}
	for _, p := range m.Params {
		res, err := resolveQuery(s, p)
		if err != nil {
			return mr, err
		}
		mr.params = append(mr.params, res)
	}
	return mr, nil
}

func newResolveCmd(c *cli) *cobra.Command {
	var (
		value string
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "resolve FILE...",
		Short: "Resolve the queries of declaration fixtures",
		Long: `Load each YAML fixture into its own session, resolve its queries
and print the selected strategy with the snippets it emits. Fixtures are
processed concurrently and reported in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := make([]*report, len(args))

			g, ctx := errgroup.WithContext(cmd.Context())
			for i, path := range args {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					rep, err := resolveFixture(c.opts, path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					c.log.Debug("fixture resolved",
						zap.String("file", path),
						zap.String("session", rep.session.ID),
						zap.Int("queries", len(rep.rows)))
					reports[i] = rep
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, rep := range reports {
				if len(reports) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "%s (%s)\n", rep.name, rep.file)
				}
				writeResolutions(out, rep.rows, value)
				if len(rep.methods) > 0 {
					fmt.Fprintln(out)
					writeMethods(out, rep.methods)
				}
				if stats {
					writeStats(out, rep.session)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "Value expression passed to the snippets (default: the query name)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print cache and miss counters after each table")
	return cmd
}

func writeResolutions(w io.Writer, rows []resolution, value string) {
	var data [][]string
	for _, r := range rows {
		val := value
		if val == "" {
			val = r.query.Name
		}
		if r.strategy == nil {
			data = append(data, []string{r.query.Name, r.query.Direction, describe(r), "-", "-", "-"})
			continue
		}
		data = append(data, []string{
			r.query.Name,
			r.query.Direction,
			r.strategy.Display(),
			snippet(r.strategy, marshal.OpToNative, val),
			snippet(r.strategy, marshal.OpFromNative, val),
			snippet(r.strategy, marshal.OpTest, val),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"QUERY", "DIRECTION", "STRATEGY", "TO NATIVE", "FROM NATIVE", "TEST"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
}

func writeMethods(w io.Writer, methods []methodReport) {
	var data [][]string
	for _, m := range methods {
		result := "void"
		if m.result.query.Type.Kind() != cxx.TypeVoid {
			result = describe(m.result)
		}
		params := make([]string, len(m.params))
		for i, p := range m.params {
			params[i] = p.query.Name + ": " + describe(p)
		}
		data = append(data, []string{
			cxx.CXXName(m.method.Decl),
			strconv.Itoa(m.required),
			result,
			strings.Join(params, ", "),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"METHOD", "REQUIRED", "RESULT", "PARAMS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoWrapText(false)
	table.AppendBulk(data)
	table.Render()
}

// describe is the strategy display, or the miss reason in parentheses.
func describe(r resolution) string {
	if r.strategy == nil {
		return "(" + string(r.reason) + ")"
	}
	return r.strategy.Display()
}

// snippet emits op for val. Synthetic strategies report their synthesized
// value in the fromNative column.
func snippet(s marshal.Strategy, op marshal.Op, val string) string {
	var (
		out string
		err error
	)
	switch {
	case op == marshal.OpFromNative && marshal.IsSynthetic(s):
		out, err = s.Synthesize()
	case !s.Supports(op):
		return "-"
	case op == marshal.OpToNative:
		out, err = s.ToNative(val)
	case op == marshal.OpFromNative:
		out, err = s.FromNative(val)
	case op == marshal.OpTest:
		out, err = s.Test(val)
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return out
}

func writeStats(w io.Writer, snap marshal.Snapshot) {
	fmt.Fprintf(w, "\nbound classes: %d, hits: %d, misses: %d\n", snap.Bound, snap.Stats.Hits, snap.Stats.MissCount())
	for _, v := range snap.Variants() {
		fmt.Fprintf(w, "  %-10s %d\n", v, snap.Instances[v])
	}
	reasons := make([]string, 0, len(snap.Stats.Misses))
	for r := range snap.Stats.Misses {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(w, "  miss %-28s %d\n", r, snap.Stats.Misses[marshal.MissReason(r)])
	}
}
