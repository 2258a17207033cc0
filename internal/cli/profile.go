package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/ndb/ndb"
	"github.com/roach88/ndb/nostr"
)

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <pubkey>",
		Short: "Print the profile published by a pubkey",
		Long: `Print the latest metadata (kind 0) published by a 64-character hex pubkey.

Exits 1 when the pubkey has no profile.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(rootOpts, args[0], cmd)
		},
	}
}

func runProfile(opts *RootOptions, pubkey string, cmd *cobra.Command) error {
	db, err := opts.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	var p nostr.Profile
	var found bool
	err = db.View(func(txn *ndb.Transaction) error {
		p, found, err = db.GetProfileHex(txn, pubkey)
		return err
	})
	if err != nil {
		return WrapDBError("lookup failed", err)
	}
	if !found {
		return NewExitError(ExitFailure, "profile not found: "+pubkey)
	}
	return opts.formatter(cmd).Success(p)
}
