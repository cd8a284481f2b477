package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/resource"
	"github.com/sallamaty/rounds-console/pkg/models"
)

var (
	listStatus     string
	listDepartment string
	listSearch     string
	listOverdue    bool
)

// listCmd prints a backend collection
var listCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "List a backend collection",
	Long: `List a backend collection as JSON.

Resources: ` + strings.Join(listerNames(), ", ") + `

Rounds can be narrowed with --status, --department and --search; CAPAs
with --overdue.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

// dashboardCmd prints the home screen figures
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show round and CAPA totals",
	RunE:  runDashboard,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only rounds with this status")
	listCmd.Flags().StringVar(&listDepartment, "department", "", "Only rounds of this department")
	listCmd.Flags().StringVar(&listSearch, "search", "", "Only rounds matching this text")
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue CAPAs")
}

type lister func(ctx context.Context, q *queries.Queries) (interface{}, error)

var listers = map[string]lister{
	"rounds": func(ctx context.Context, q *queries.Queries) (interface{}, error) {
		rounds, err := load(ctx, q.Rounds())
		if err != nil {
			return nil, err
		}
		return queries.FilterRounds(rounds, queries.RoundFilter{
			Status:     models.RoundStatus(listStatus),
			Department: listDepartment,
			Search:     listSearch,
		}), nil
	},
	"my-rounds": loader((*queries.Queries).MyRounds),
	"capas": func(ctx context.Context, q *queries.Queries) (interface{}, error) {
		capas, err := load(ctx, q.Capas())
		if err != nil {
			return nil, err
		}
		if listOverdue {
			return queries.OverdueCapas(capas, timeNow()), nil
		}
		return capas, nil
	},
	"departments":           loader((*queries.Queries).Departments),
	"users":                 loader((*queries.Queries).Users),
	"assessors":             loader((*queries.Queries).Assessors),
	"round-types":           loader((*queries.Queries).RoundTypes),
	"evaluation-categories": loader((*queries.Queries).Categories),
	"evaluation-items":      loader((*queries.Queries).Items),
}

func listerNames() []string {
	names := make([]string, 0, len(listers))
	for name := range listers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loader[T any](build func(*queries.Queries, ...resource.Option) *resource.Resource[T]) lister {
	return func(ctx context.Context, q *queries.Queries) (interface{}, error) {
		return load(ctx, build(q))
	}
}

// load runs one fetch cycle of r and returns its data or its error message
func load[T any](ctx context.Context, r *resource.Resource[T]) (T, error) {
	defer r.Close()
	r.Start()

	var zero T
	state, err := r.Wait(ctx)
	if err != nil {
		return zero, err
	}
	if state.Error != "" {
		return zero, errors.New(state.Error)
	}
	return state.Data, nil
}

func runList(cmd *cobra.Command, args []string) error {
	list, ok := listers[args[0]]
	if !ok {
		return fmt.Errorf("unknown resource %q (one of: %s)", args[0], strings.Join(listerNames(), ", "))
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	data, err := list(ctx, openQueries())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), data)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	dashboard, err := openQueries().Dashboard(ctx, timeNow())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), dashboard)
}
