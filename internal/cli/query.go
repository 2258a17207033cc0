package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ndb/ndb"
	"github.com/roach88/ndb/nostr"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	FilterFlags
	Limit int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored notes, newest first",
		Long: `Query stored notes matching every given criterion, newest first.

Replaced versions of replaceable notes are never returned. With --search,
notes are ranked by how often the search words occur.

Examples:
  ndb query --kind 1 --limit 20
  ndb query --author <hex> --tag t=nostr
  ndb query --search "hello world" --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	opts.FilterFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum notes to return (default query.default_limit)")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	limit, err := opts.resolveLimit(opts.Limit)
	if err != nil {
		return err
	}

	db, err := opts.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	filter, err := opts.FilterFlags.build(cmd, 0)
	if err != nil {
		return err
	}
	defer filter.Close()

	var notes []nostr.Note
	err = db.View(func(txn *ndb.Transaction) error {
		notes, err = db.QueryNotes(txn, filter, limit)
		return err
	})
	if err != nil {
		return WrapDBError("query failed", err)
	}

	out := opts.formatter(cmd)
	out.VerboseLog("%s matched", fmtCount(len(notes), "note"))
	if opts.Format == "json" {
		if notes == nil {
			notes = []nostr.Note{}
		}
		return out.Success(notes)
	}
	if len(notes) == 0 {
		return out.Success("No notes found.")
	}
	for _, n := range notes {
		if err := out.Success(n); err != nil {
			return err
		}
	}
	return nil
}

// resolveLimit applies the configured default and maximum to a --limit
// value. Zero means the default.
func (opts *RootOptions) resolveLimit(limit int) (int, error) {
	if limit == 0 {
		limit = opts.Config.Query.DefaultLimit
	}
	if limit < 0 || limit > opts.Config.Query.MaxLimit {
		return 0, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --limit %d: must be in (0, %d]", limit, opts.Config.Query.MaxLimit))
	}
	return limit, nil
}

func fmtCount(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
