package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
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
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	e, ok := As(err)
	if !ok {
		return 1
	}

	switch e.Category {
	case CategoryPrecondition, CategoryConfig:
		return 7 // Environment or configuration error
	case CategoryProtocol:
		return 9 // Build tool speaks an unexpected protocol
	case CategoryBuild, CategoryFileSystem:
		return 11 // Build error
	case CategoryStage, CategoryStageTimeout, CategoryMissingInput:
		return 12 // Post-processing error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	e, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return e.Error()
	}

	switch e.Category {
	case CategoryPrecondition, CategoryConfig:
		return e.Message
	default:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
		}
		return fmt.Sprintf("%s: %s", e.Category, e.Message)
	}
}

// HandleError logs and prints err and returns the exit code the process should use.
func (a *CLIErrorAdapter) HandleError(err error) int {
	if err == nil {
		return 0
	}

	a.logError(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	e, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}

	attrs := []slog.Attr{slog.String("category", string(e.Category))}
	for k, v := range e.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	a.logger.LogAttrs(context.Background(), levelFromSeverity(e.Severity), e.Message, attrs...)
}

func levelFromSeverity(severity ErrorSeverity) slog.Level {
	if severity == SeverityWarning {
		return slog.LevelWarn
	}
	return slog.LevelError
}
