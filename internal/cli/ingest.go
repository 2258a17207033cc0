package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// IngestResult is the payload of a successful ingest.
type IngestResult struct {
	Files    int `json:"files"`
	Accepted int `json:"accepted"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Ingest newline-delimited JSON events",
		Long: `Ingest newline-delimited JSON events from files, or from stdin when no
file (or "-") is given.

Blank lines are skipped. Events that fail validation are dropped; the
accepted count includes every line the engine processed.

Examples:
  ndb ingest events.jsonl
  cat events.jsonl | ndb ingest --db ./data`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(rootOpts, args, cmd)
		},
	}
}

func runIngest(opts *RootOptions, files []string, cmd *cobra.Command) error {
	if len(files) == 0 {
		files = []string{"-"}
	}

	db, err := opts.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	out := opts.formatter(cmd)
	result := IngestResult{}
	for _, name := range files {
		data, err := readInput(cmd, name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read "+name, err)
		}
		n, err := db.ProcessEvents(string(data))
		if err != nil {
			return WrapDBError("failed to ingest "+name, err)
		}
		out.VerboseLog("%s: %d accepted", name, n)
		result.Files++
		result.Accepted += n
	}

	if opts.Format == "json" {
		return out.Success(result)
	}
	return out.Success(fmtCount(result.Accepted, "event") + " accepted")
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(name)
}
