package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter turns a command error into a message on stderr and a
// process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor returns 0 for nil, the category's code for a classified error
// and ExitCodeGeneric otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return classified.ExitCode()
	}
	return ExitCodeGeneric
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return err.Error()
	}
	if classified.Category() == CategoryInternal {
		return "Internal error occurred (use -v for details)"
	}

	var b strings.Builder
	b.WriteString("Error: " + classified.Message())
	if cause := classified.Cause(); cause != nil {
		b.WriteString(": " + cause.Error())
	}
	ctx := classified.Context()
	if loc, ok := ctx.GetString(KeyLocation); ok {
		b.WriteString("\n  location: " + loc)
	}
	if hint, ok := ctx.GetString(KeyHint); ok {
		b.WriteString("\n  hint: " + hint)
	} else if classified.Category() == CategoryUninitialized {
		b.WriteString("\n  hint: run `doxidize init` first")
	}
	// External tools report their reason on stderr; the user needs to see it.
	if stderr, ok := ctx.GetString(KeyStderr); ok && stderr != "" {
		b.WriteString("\n\nstderr:\n" + strings.TrimRight(stderr, "\n"))
	}
	return b.String()
}

// Report prints err and returns its exit code. It prints nothing for nil.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err and exits the process with its code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.exit(a.Report(err))
}

// shouldLog logs everything in verbose mode and fatal or unclassified
// errors otherwise.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	level := slog.LevelError
	if classified.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if classified.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	if cmd, ok := classified.Context().GetString(KeyCommand); ok {
		attrs = append(attrs, slog.String(KeyCommand, cmd))
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
