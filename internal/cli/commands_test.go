package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndb/internal/testutil"
	"github.com/roach88/ndb/nostr"
)

func TestIngest_FileAndStdin(t *testing.T) {
	e := newEnv(t)
	f := testutil.NewEventFactory()

	file := filepath.Join(e.dir, "events.jsonl")
	require.NoError(t, os.WriteFile(file, []byte(testutil.Batch(
		f.TextNote("one"),
		f.TextNote("two"),
	)+"\n\n"), 0644))

	out, _, err := e.run(t, "", "ingest", file)
	require.NoError(t, err)
	assert.Equal(t, "2 events accepted\n", out)

	out, _, err = e.run(t, testutil.JSON(f.TextNote("three")), "ingest")
	require.NoError(t, err)
	assert.Equal(t, "1 event accepted\n", out)

	out, _, err = e.run(t, "", "query", "--kind", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "three")
	assert.Contains(t, lines[2], "one")
}

func TestIngest_JSONFormat(t *testing.T) {
	e := newEnv(t)
	f := testutil.NewEventFactory()

	out, _, err := e.run(t, testutil.Batch(f.TextNote("a"), f.TextNote("b")), "ingest", "-", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   IngestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, IngestResult{Files: 1, Accepted: 2}, resp.Data)
}

func TestIngest_MissingFile(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.run(t, "", "ingest", filepath.Join(e.dir, "absent.jsonl"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQuery_Filters(t *testing.T) {
	e := newEnv(t)
	f := testutil.NewEventFactory()
	bob := f.As(testutil.BobPubKey)
	e.ingest(t, testutil.Batch(
		f.TextNote("hello nostr", nostr.Tag{"t", "nostr"}),
		bob.TextNote("gm"),
		f.TextNote("second post"),
		f.Note(7, "+"),
	))

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"kind", []string{"--kind", "1"}, []string{"second post", "gm", "hello nostr"}},
		{"author", []string{"--author", testutil.BobPubKey}, []string{"gm"}},
		{"tag", []string{"--tag", "t=nostr"}, []string{"hello nostr"}},
		{"limit", []string{"--kind", "1", "-n", "1"}, []string{"second post"}},
		{"since", []string{"--kind", "1", "--since", "1704067201"}, []string{"second post", "gm"}},
		{"until", []string{"--until", "1704067200"}, []string{"hello nostr"}},
		{"search", []string{"--search", "post"}, []string{"second post"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := e.run(t, "", append([]string{"query", "--format", "json"}, tt.args...)...)
			require.NoError(t, err)

			var resp struct {
				Data []nostr.Note `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			got := make([]string, len(resp.Data))
			for i, n := range resp.Data {
				got[i] = n.Content
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_NoMatches(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run(t, "", "query", "--kind", "1")
	require.NoError(t, err)
	assert.Equal(t, "No notes found.\n", out)

	out, _, err = e.run(t, "", "query", "--kind", "1", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ok","data":[]}`, out)
}

func TestQuery_InvalidArguments(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"negative limit", []string{"--limit", "-1"}, "invalid --limit"},
		{"limit above max", []string{"--limit", "100000001"}, "invalid --limit"},
		{"tag without value", []string{"--tag", "t"}, "want name=value"},
		{"bad author", []string{"--author", "zz"}, "INVALID_ARGUMENT"},
		{"kind out of range", []string{"--kind", "70000"}, "INVALID_ARGUMENT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.run(t, "", append([]string{"query"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestNote(t *testing.T) {
	e := newEnv(t)
	n := testutil.NewEventFactory().TextNote("find me")
	e.ingest(t, testutil.JSON(n))

	out, _, err := e.run(t, "", "note", n.ID)
	require.NoError(t, err)
	got, err := nostr.ParseNote([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, n, got)

	missing := strings.Repeat("ab", 32)
	_, _, err = e.run(t, "", "note", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "note not found")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, _, err = e.run(t, "", "note", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestProfileAndSearch(t *testing.T) {
	e := newEnv(t)
	f := testutil.NewEventFactory()
	e.ingest(t, testutil.Batch(
		f.Metadata(nostr.Profile{Name: "alice", DisplayName: "Alice Liddell"}),
		f.As(testutil.BobPubKey).Metadata(nostr.Profile{Name: "bob"}),
	))

	out, _, err := e.run(t, "", "profile", testutil.AlicePubKey, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data nostr.Profile `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Alice Liddell", resp.Data.DisplayName)

	_, _, err = e.run(t, "", "profile", strings.Repeat("cd", 32))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out, _, err = e.run(t, "", "search", "ALI")
	require.NoError(t, err)
	assert.Equal(t, testutil.AlicePubKey+"  Alice Liddell\n", out)

	out, _, err = e.run(t, "", "search", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "No profiles found.\n", out)
}

func TestWatch_PrintsNewNotes(t *testing.T) {
	e := newEnv(t)
	f := testutil.NewEventFactory()
	e.ingest(t, testutil.JSON(f.TextNote("old")))

	cfg := filepath.Join(e.dir, "ndb.cue")
	require.NoError(t, os.WriteFile(cfg, []byte(`watch: poll_interval: "10ms"`), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out, errOut := &syncBuffer{}, &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		cmd := NewRootCommand()
		cmd.SetIn(strings.NewReader(""))
		cmd.SetOut(out)
		cmd.SetErr(errOut)
		cmd.SetArgs([]string{"watch", "--kind", "1", "--count", "2", "--db", e.db, "--config", cfg})
		done <- cmd.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(errOut.String(), "msg=watching")
	}, 5*time.Second, 10*time.Millisecond)

	e.ingest(t, testutil.Batch(
		f.TextNote("new one"),
		f.Note(7, "+"),
		f.TextNote("new two"),
		f.TextNote("new three"),
	))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("watch did not exit after --count notes")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "new one")
	assert.Contains(t, lines[1], "new two")
	assert.NotContains(t, out.String(), "old")
}

func TestWatch_StopsOnCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	errOut := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- e.runContext(ctx, strings.NewReader(""), &syncBuffer{}, errOut, "watch")
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(errOut.String(), "msg=watching")
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Contains(t, errOut.String(), "watch stopped")
}
