package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonstruct/internal/config"
	"github.com/mcncl/jsonstruct/internal/errors"
)

// testContext returns a Context reading stdin from input and capturing output.
func testContext(cfg *config.Config, input string) (*Context, *bytes.Buffer, *bytes.Buffer) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	var stdout, stderr bytes.Buffer
	return &Context{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(&stderr, nil)),
		Stdin:  strings.NewReader(input),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func defaultCmd() *ConvertCmd {
	return &ConvertCmd{Package: "main", RootName: "RootType", Format: true, Color: "never"}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_SimpleJSON(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Package = "models"
	cfg.RootName = "Person"
	ctx, stdout, _ := testContext(cfg, "")

	cmd := defaultCmd()
	cmd.Input = writeFile(t, "input.json", `{"name": "John", "age": 30, "active": true}`)

	require.NoError(t, cmd.Run(ctx))

	expected := "package models\n" +
		"\n" +
		"type Person struct {\n" +
		"\tName   string `json:\"name\"`\n" +
		"\tAge    int    `json:\"age\"`\n" +
		"\tActive bool   `json:\"active\"`\n" +
		"}\n"
	assert.Equal(t, expected, stdout.String())
}

func TestRun_WithOutputFile(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Package = "test"
	cfg.RootName = "User"
	ctx, stdout, stderr := testContext(cfg, "")

	cmd := defaultCmd()
	cmd.Input = writeFile(t, "input.json", `{"id": 1, "email": "test@example.com"}`)
	cmd.Output = filepath.Join(t.TempDir(), "out.go")

	require.NoError(t, cmd.Run(ctx))

	outputContent, err := os.ReadFile(cmd.Output)
	require.NoError(t, err)

	outputStr := string(outputContent)
	assert.Contains(t, outputStr, "package test")
	assert.Contains(t, outputStr, "type User struct")
	assert.Contains(t, outputStr, "Id    int")
	assert.Contains(t, outputStr, "Email string")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Generated Go code written to")
}

func TestRun_DeclarationsOnly(t *testing.T) {
	cfg := config.NewConfig()
	cfg.RootName = "Data"
	ctx, stdout, _ := testContext(cfg, `{"meta": {"count": 3}}`)

	cmd := defaultCmd()
	cmd.Package = ""

	require.NoError(t, cmd.Run(ctx))

	expected := "type Data struct {\n" +
		"\tMeta Meta `json:\"meta\"`\n" +
		"}\n" +
		"\n" +
		"type Meta struct {\n" +
		"\tCount int `json:\"count\"`\n" +
		"}\n"
	assert.Equal(t, expected, stdout.String())
}

func TestParseInput_FromFile(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Input = writeFile(t, "input.json", `{"user": {"name": "Alice", "id": 42}}`)

	value, err := cmd.parseInput(ctx)
	require.NoError(t, err)
	assert.NotNil(t, value)
}

func TestParseInput_FromStdin(t *testing.T) {
	ctx, _, _ := testContext(nil, `[{"item": "apple"}, {"item": "banana"}]`)

	value, err := defaultCmd().parseInput(ctx)
	require.NoError(t, err)
	assert.NotNil(t, value)
}

func TestParseInput_FromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	go func() {
		defer func() { _ = w.Close() }()
		_, _ = w.WriteString(`{"piped": true}`)
	}()
	defer func() { _ = r.Close() }()

	ctx, _, _ := testContext(nil, "")
	ctx.Stdin = r

	value, err := defaultCmd().parseInput(ctx)
	require.NoError(t, err)
	assert.NotNil(t, value)
}

func TestParseInput_EmptyStdin(t *testing.T) {
	ctx, _, _ := testContext(nil, "")

	_, err := defaultCmd().parseInput(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestParseInput_EmptyFile(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Input = writeFile(t, "empty.json", "")

	_, err := cmd.parseInput(ctx)
	assert.ErrorIs(t, err, errors.ErrFileEmpty)
}

func TestParseInput_InvalidJSON(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Input = writeFile(t, "bad.json", `{"name": "John", "age": }`)

	_, err := cmd.parseInput(ctx)
	assert.ErrorIs(t, err, errors.ErrInvalidJSON)
}

func TestParseInput_NonExistentFile(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Input = "/non/existent/file.json"

	_, err := cmd.parseInput(ctx)
	assert.ErrorIs(t, err, errors.ErrFileNotFound)
}

func TestParseInput_ConflictingInputAndURL(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Input = "/some/file.json"
	cmd.URL = "https://example.com/api"

	_, err := cmd.parseInput(ctx)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot specify both --input and --url")
}

func TestParseInput_InvalidURLScheme(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"ftp scheme", "ftp://example.com/data.json"},
		{"file scheme", "file:///path/to/file.json"},
		{"no scheme", "example.com/api"},
		{"invalid scheme", "notascheme://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, _ := testContext(nil, "")
			cmd := defaultCmd()
			cmd.URL = tt.url
			_, err := cmd.parseInput(ctx)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid URL scheme")
		})
	}
}

func TestParseInput_FromURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id": 1}`)
		case "/big":
			_, _ = io.WriteString(w, `{"data": "`+strings.Repeat("x", 64)+`"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	cfg := config.NewConfig()
	cfg.Server.MaxBodyBytes = 32

	t.Run("ok", func(t *testing.T) {
		ctx, _, _ := testContext(cfg, "")
		cmd := defaultCmd()
		cmd.URL = ts.URL + "/ok"
		value, err := cmd.parseInput(ctx)
		require.NoError(t, err)
		assert.NotNil(t, value)
	})

	t.Run("uppercase scheme", func(t *testing.T) {
		ctx, _, _ := testContext(cfg, "")
		cmd := defaultCmd()
		cmd.URL = strings.Replace(ts.URL, "http://", "HTTP://", 1) + "/ok"
		_, err := cmd.parseInput(ctx)
		if err != nil {
			assert.NotContains(t, err.Error(), "invalid URL scheme")
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctx, _, _ := testContext(cfg, "")
		cmd := defaultCmd()
		cmd.URL = ts.URL + "/missing"
		_, err := cmd.parseInput(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("too large", func(t *testing.T) {
		ctx, _, _ := testContext(cfg, "")
		cmd := defaultCmd()
		cmd.URL = ts.URL + "/big"
		_, err := cmd.parseInput(ctx)
		assert.ErrorIs(t, err, errors.ErrBodyTooLarge)
	})
}

func TestWriteOutput_ToFile(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Output = filepath.Join(t.TempDir(), "out.go")

	require.NoError(t, cmd.writeOutput(ctx, "package main\n"))

	content, err := os.ReadFile(cmd.Output)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(content))
}

func TestWriteOutput_ToStdout(t *testing.T) {
	ctx, stdout, _ := testContext(nil, "")

	require.NoError(t, defaultCmd().writeOutput(ctx, "\ntype X int\n\n"))
	assert.Equal(t, "type X int\n", stdout.String())
}

func TestWriteOutput_Coloured(t *testing.T) {
	ctx, stdout, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Color = "always"

	require.NoError(t, cmd.writeOutput(ctx, "type X int\n"))
	assert.Contains(t, stdout.String(), "\x1b[")
}

func TestWriteOutput_FileError(t *testing.T) {
	ctx, _, _ := testContext(nil, "")
	cmd := defaultCmd()
	cmd.Output = filepath.Join(t.TempDir(), "missing", "dir", "out.go")

	err := cmd.writeOutput(ctx, "package main\n")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write to file")
}

func TestReadInteractiveInput(t *testing.T) {
	// The last line has no trailing newline and must still be read.
	ctx, _, stderr := testContext(nil, "{\n  \"a\": 1\n}")

	value, err := readInteractiveInput(ctx)
	require.NoError(t, err)
	assert.NotNil(t, value)
	assert.Contains(t, stderr.String(), "Interactive Mode")
}

func TestReadInteractiveInput_Empty(t *testing.T) {
	ctx, _, _ := testContext(nil, "\n\n")

	_, err := readInteractiveInput(ctx)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestFullPipeline_FileToFile(t *testing.T) {
	path := writeFile(t, ".jsonstruct.yml", `
package: "integration"
root_name: "UserResponse"
types:
  mappings:
    - pattern: "_at$"
      type: "time.Time"
      import: "time"
naming:
  qualify_nested: true
`)
	cfg, err := config.LoadConfigWithCLI(path, config.CLIOverrides{Package: "main", RootName: "RootType"})
	require.NoError(t, err)
	ctx, _, _ := testContext(cfg, "")

	cmd := defaultCmd()
	cmd.Input = writeFile(t, "input.json", `{
		"user": {
			"id": 7,
			"created_at": "2024-01-15T10:30:00Z",
			"settings": {"theme": "dark", "notifications": true}
		},
		"status": "success"
	}`)
	cmd.Output = filepath.Join(t.TempDir(), "out.go")

	require.NoError(t, cmd.Run(ctx))

	output, err := os.ReadFile(cmd.Output)
	require.NoError(t, err)

	outputStr := string(output)
	assert.Contains(t, outputStr, "package integration")
	assert.Contains(t, outputStr, "import (\n\t\"time\"\n)")
	assert.Contains(t, outputStr, "type UserResponse struct")
	assert.Contains(t, outputStr, "type UserResponseUser struct")
	assert.Contains(t, outputStr, "type UserResponseUserSettings struct")
	assert.Contains(t, outputStr, "time.Time")
	assert.Contains(t, outputStr, "`json:\"created_at\"`")
}

func TestRun_WithoutFormatting(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Formatting.Enabled = false
	ctx, stdout, _ := testContext(cfg, `{"name": "test"}`)

	require.NoError(t, defaultCmd().Run(ctx))
	assert.Contains(t, stdout.String(), "type RootType struct")
}

func TestRun_FormatFailureFallsBack(t *testing.T) {
	cfg := config.NewConfig()
	cfg.RootName = "Bad Name"
	ctx, stdout, stderr := testContext(cfg, `{"a": 1}`)

	cmd := defaultCmd()
	cmd.Package = ""

	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, stdout.String(), "type Bad Name struct", "unformatted output is still written")
	assert.Contains(t, stderr.String(), "formatting failed")
}

func TestRun_InvalidPackageName(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Package = "not-valid"
	ctx, _, _ := testContext(cfg, `{"a": 1}`)

	cmd := defaultCmd()
	cmd.Package = "not-valid"
	assert.Error(t, cmd.Run(ctx))
}
