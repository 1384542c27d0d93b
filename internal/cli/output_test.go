package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int64{"deleted": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"deleted": float64(3)}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E_DATA_NOT_FOUND", "product 4 not found", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DATA_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "product 4 not found", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E_TEST_FAILED", "1 of 2 scenarios failed", []string{"delete_failed"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, []any{"delete_failed"}, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success("Signed out."))
	assert.Equal(t, "Signed out.\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E_VALIDATION", "Name is required.", map[string]string{"field": "name"}))
	assert.Equal(t, "Error [E_VALIDATION]: Name is required.\n", buf.String())
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error("E_VALIDATION", "Name is required.", map[string]string{"field": "name"}))
	assert.Contains(t, buf.String(), "Error [E_VALIDATION]")
	assert.Contains(t, buf.String(), "Details: map[field:name]")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		verbose bool
		wantOut string
		wantErr string
	}{
		{"text_verbose", "text", true, "restoring session\n", ""},
		{"text_quiet", "text", false, "", ""},
		{"json_verbose_goes_to_err_writer", "json", true, "", "restoring session\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: tt.format, Writer: out, Verbose: tt.verbose}
			if tt.format == "json" {
				formatter.ErrWriter = errOut
			}

			formatter.VerboseLog("restoring %s", "session")

			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, tt.wantErr, errOut.String())
		})
	}
}

func TestOutputFormatter_Dump(t *testing.T) {
	type sample struct {
		Email string
		ID    int64
	}

	quiet := &bytes.Buffer{}
	(&OutputFormatter{Format: "text", Writer: quiet}).Dump("user", sample{Email: "ana@example.com"})
	assert.Empty(t, quiet.String())

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}
	formatter.Dump("user", sample{Email: "ana@example.com", ID: 7})

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "user:\n")
	assert.Contains(t, errOut.String(), `Email: (string) (len=15) "ana@example.com"`)
	assert.Contains(t, errOut.String(), "ID: (int64) 7")
}

func TestExitError(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"plain", NewExitError(ExitCommandError, "invalid configuration"), ExitCommandError, "invalid configuration"},
		{"wrapped", WrapExitError(ExitFailure, "server error", base), ExitFailure, "server error: connection refused"},
		{"nested", fmt.Errorf("run: %w", NewExitError(ExitCommandError, "bad flag")), ExitCommandError, "run: bad flag"},
		{"foreign", base, ExitFailure, "connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, GetExitCode(tt.err))
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}

	assert.ErrorIs(t, WrapExitError(ExitFailure, "server error", base), base)
}
