package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "uninitialized", err: UninitializedError("run init first").Build(), expected: 3},
		{name: "already initialized", err: AlreadyExistsError("docs exists").Build(), expected: 3},
		{name: "declaration not found", err: NotFoundError("crate not found").Build(), expected: 4},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "external tool", err: ExternalToolError("cargo failed").Build(), expected: 8},
		{name: "git", err: GitError("push rejected").Build(), expected: 8},
		{name: "metadata", err: MetadataError("unexpected json").Build(), expected: 9},
		{name: "internal", err: InternalError("invariant").Build(), expected: 10},
		{name: "template", err: TemplateError("missing key").Build(), expected: 11},
		{name: "wrapped filesystem", err: fmt.Errorf("ctx: %w", NewError(CategoryFileSystem, "write").Build()), expected: 11},
		{name: "runtime", err: NewError(CategoryRuntime, "watcher").Build(), expected: 12},
		{name: "unknown category", err: NewError("weird", "x").Build(), expected: ExitCodeGeneric},
		{name: "unclassified error", err: errors.New("unknown error"), expected: ExitCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "internal error in non-verbose mode",
			err:      InternalError("internal issue").Build(),
			contains: []string{"Internal error occurred (use -v for details)"},
		},
		{
			name:     "user facing error shows message and cause",
			err:      WrapError(errors.New("permission denied"), CategoryFileSystem, "write index.html").Build(),
			contains: []string{"Error: write index.html: permission denied"},
		},
		{
			name:     "external tool shows stderr",
			err:      ExternalToolError("cargo metadata failed").WithContext(KeyStderr, "could not find Cargo.toml\n").Build(),
			contains: []string{"stderr:\ncould not find Cargo.toml"},
		},
		{
			name: "uninitialized shows location and hint",
			err: UninitializedError("project is not initialized").
				WithContext(KeyLocation, "/crate/docs").
				WithContext(KeyCommand, "build").
				Build(),
			contains: []string{"location: /crate/docs", "doxidize init"},
		},
		{
			name: "explicit hint replaces the default",
			err: UninitializedError("no rendered site to publish").
				WithContext(KeyHint, "run `doxidize build` first").
				Build(),
			contains: []string{"hint: run `doxidize build` first"},
		},
		{name: "unclassified error", err: errors.New("unknown error"), contains: []string{"Error: unknown error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
	assert.Empty(t, adapter.FormatError(nil))
}

func TestCLIErrorAdapter_VerboseShowsFullChain(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, slog.Default())
	err := InternalError("walker revisited id").Build()

	assert.Contains(t, adapter.FormatError(err), "[internal:fatal] walker revisited id")
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(nil)
	assert.Equal(t, -1, code)

	adapter.HandleError(ValidationError("3 broken link(s)").Build())
	assert.Equal(t, 2, code)
	assert.Equal(t, "Error: 3 broken link(s)\n", out.String())
	assert.Contains(t, logs.String(), "category=validation")

	// Non-fatal classified errors are only printed.
	logs.Reset()
	adapter.HandleError(NotFoundError("crate root not found").Build())
	assert.Equal(t, 4, code)
	assert.Empty(t, logs.String())
}
