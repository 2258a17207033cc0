package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ndb/ndb"
)

// FilterFlags holds the filter criteria shared by query and watch.
type FilterFlags struct {
	Kinds   []int
	Authors []string
	Tags    []string // name=value
	Since   int64
	Until   int64
	Search  string
}

func (f *FilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.Kinds, "kind", nil, "match note kind (repeatable)")
	cmd.Flags().StringSliceVar(&f.Authors, "author", nil, "match author pubkey, hex (repeatable)")
	cmd.Flags().StringArrayVar(&f.Tags, "tag", nil, "match tag as name=value (repeatable)")
	cmd.Flags().Int64Var(&f.Since, "since", 0, "match notes created at or after this unix time")
	cmd.Flags().Int64Var(&f.Until, "until", 0, "match notes created at or before this unix time")
	cmd.Flags().StringVar(&f.Search, "search", "", "match notes whose content contains every word")
}

// build turns the flags into a filter. limit is applied when positive.
func (f *FilterFlags) build(cmd *cobra.Command, limit int) (*ndb.Filter, error) {
	b := ndb.NewFilterBuilder()
	b.Kinds(f.Kinds...)
	b.AuthorsHex(f.Authors...)

	tags, err := parseTags(f.Tags)
	if err != nil {
		b.Close()
		return nil, err
	}
	for _, t := range tags {
		b.Tag(t.name, t.values...)
	}

	if cmd.Flags().Changed("since") {
		b.Since(f.Since)
	}
	if cmd.Flags().Changed("until") {
		b.Until(f.Until)
	}
	if limit > 0 {
		b.Limit(limit)
	}
	b.Search(f.Search)

	filter, err := b.Build()
	if err != nil {
		return nil, WrapDBError("invalid filter", err)
	}
	return filter, nil
}

type tagCriterion struct {
	name   string
	values []string
}

// parseTags groups name=value pairs by name, keeping first-seen order.
func parseTags(pairs []string) ([]tagCriterion, error) {
	var out []tagCriterion
	index := make(map[string]int)
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --tag %q: want name=value", p))
		}
		i, seen := index[name]
		if !seen {
			i = len(out)
			index[name] = i
			out = append(out, tagCriterion{name: name})
		}
		out[i].values = append(out[i].values, value)
	}
	return out, nil
}
