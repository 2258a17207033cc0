package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ndb/ndb"
	"github.com/roach88/ndb/nostr"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Limit int
}

// SearchHit is one profile search result.
type SearchHit struct {
	PubKey string `json:"pubkey"`
	Name   string `json:"name,omitempty"`
}

func (h SearchHit) String() string {
	if h.Name == "" {
		return h.PubKey
	}
	return fmt.Sprintf("%s  %s", h.PubKey, h.Name)
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search profiles by name",
		Long: `Search profiles whose name or display name contains query.

Matching ignores case and compatibility forms. Names starting with the
query rank first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum profiles to return (default query.default_limit)")

	return cmd
}

func runSearch(opts *SearchOptions, query string, cmd *cobra.Command) error {
	limit, err := opts.resolveLimit(opts.Limit)
	if err != nil {
		return err
	}

	db, err := opts.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	hits := []SearchHit{}
	err = db.View(func(txn *ndb.Transaction) error {
		keys, err := db.SearchProfiles(txn, query, limit)
		if err != nil {
			return err
		}
		for _, k := range keys {
			p, _, err := db.GetProfile(txn, k[:])
			if err != nil {
				return err
			}
			hits = append(hits, SearchHit{PubKey: nostr.EncodeHex(k[:]), Name: p.BestDisplayName()})
		}
		return nil
	})
	if err != nil {
		return WrapDBError("search failed", err)
	}

	out := opts.formatter(cmd)
	if opts.Format == "json" {
		return out.Success(hits)
	}
	if len(hits) == 0 {
		return out.Success("No profiles found.")
	}
	for _, h := range hits {
		if err := out.Success(h); err != nil {
			return err
		}
	}
	return nil
}
