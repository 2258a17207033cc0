package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ndb/ndb"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"accepted": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"accepted": float64(3)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("QUERY_FAILURE", "query failed", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "QUERY_FAILURE", resp.Error.Code)
	assert.Equal(t, "query failed", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("FAILURE", "note not found", map[string]string{"id": "ab"}))
			assert.Contains(t, buf.String(), "Error [FAILURE]: note not found")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Processing %s", "events.jsonl")

	assert.Empty(t, out.String())
	assert.Equal(t, "Processing events.jsonl\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.NotContains(t, errOut.String(), "hidden")
}

func TestOutputFormatter_Report(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := WrapDBError("query failed", &ndb.Error{Code: ndb.CodeClosedHandleUse, Op: "query", Message: "closed"})
	require.NoError(t, formatter.Report(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "CLOSED_HANDLE_USE", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "query failed")
}

func TestWrapDBError_ExitCodes(t *testing.T) {
	tests := []struct {
		code ndb.ErrorCode
		want int
	}{
		{ndb.CodeInvalidArgument, ExitCommandError},
		{ndb.CodeOpenFailure, ExitCommandError},
		{ndb.CodeQueryFailure, ExitFailure},
		{ndb.CodeNativeFault, ExitFailure},
		{ndb.CodeClosedHandleUse, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := WrapDBError("op", &ndb.Error{Code: tt.code})
			assert.Equal(t, tt.want, GetExitCode(err))
			assert.Equal(t, string(tt.code), ErrorCode(err))
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad flag"))))
}

func TestErrorCode_NonBindingErrors(t *testing.T) {
	assert.Equal(t, "COMMAND_ERROR", ErrorCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, "FAILURE", ErrorCode(NewExitError(ExitFailure, "not found")))
	assert.Equal(t, "FAILURE", ErrorCode(errors.New("plain")))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "not found", NewExitError(ExitFailure, "not found").Error())

	cause := errors.New("disk full")
	err := WrapExitError(ExitFailure, "ingest failed", cause)
	assert.Equal(t, "ingest failed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}
