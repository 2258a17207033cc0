package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/ndb/ndb"
	"github.com/roach88/ndb/nostr"
)

// NewNoteCommand creates the note command.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "note <id>",
		Short: "Print a note by its hex id",
		Long: `Print the stored note with the given 64-character hex id.

Exits 1 when no such note is stored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNote(rootOpts, args[0], cmd)
		},
	}
}

func runNote(opts *RootOptions, id string, cmd *cobra.Command) error {
	db, err := opts.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	var note nostr.Note
	var found bool
	err = db.View(func(txn *ndb.Transaction) error {
		note, found, err = db.GetNoteByIDHex(txn, id)
		return err
	})
	if err != nil {
		return WrapDBError("lookup failed", err)
	}
	if !found {
		return NewExitError(ExitFailure, "note not found: "+id)
	}

	out := opts.formatter(cmd)
	if opts.Format == "json" {
		return out.Success(note)
	}
	b, err := json.Marshal(note)
	if err != nil {
		return err
	}
	return out.Success(string(b))
}
