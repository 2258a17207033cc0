package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/ndb/ndb"
)

// env is a scratch database directory with a config path that does not
// exist, so every run uses default settings.
type env struct {
	dir string
	db  string
	cfg string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{
		dir: dir,
		db:  filepath.Join(dir, "data"),
		cfg: filepath.Join(dir, "none.cue"),
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// run executes the root command with args plus --db and --config.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &syncBuffer{}, &syncBuffer{}
	err := e.runContext(context.Background(), strings.NewReader(stdin), out, errOut, args...)
	return out.String(), errOut.String(), err
}

func (e *env) runContext(ctx context.Context, stdin io.Reader, out, errOut io.Writer, args ...string) error {
	cmd := NewRootCommand()
	cmd.SetIn(stdin)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append(args, "--db", e.db, "--config", e.cfg))
	return cmd.ExecuteContext(ctx)
}

// ingest stores events directly through the binding.
func (e *env) ingest(t *testing.T, ldjson string) {
	t.Helper()
	db, err := ndb.Open(e.db)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ProcessEvents(ldjson)
	require.NoError(t, err)
}
