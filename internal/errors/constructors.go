package errors

import "fmt"

// Convenience functions for common error patterns

// Startup

func ToolchainRootMissing(envVar string) *Error {
	return New(CategoryPrecondition, SeverityFatal, "toolchain root is not set, vitasdk isn't properly installed").
		WithContext("env", envVar)
}

func ToolchainRootInvalid(root string, cause error) *Error {
	return Wrap(cause, CategoryPrecondition, SeverityFatal, "toolchain root is not a directory").
		WithContext("path", root)
}

func ConfigInvalid(field, reason string) *Error {
	return New(CategoryConfig, SeverityFatal, "invalid configuration").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build stream

func ProtocolViolation(line int, cause error) *Error {
	return Wrap(cause, CategoryProtocol, SeverityFatal, "parsing build tool output").
		WithContext("line", line)
}

func BuildFailed(command string, cause error) *Error {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build command failed").
		WithContext("command", command)
}

// Stages

func MissingInput(path string) *Error {
	return New(CategoryMissingInput, SeverityError, fmt.Sprintf("input file doesn't exist: %s", path)).
		WithContext("path", path)
}

func StageFailed(tool string, cause error) *Error {
	return Wrap(cause, CategoryStage, SeverityError, "tool failed").
		WithContext("tool", tool)
}

func StageTimedOut(tool string, cause error) *Error {
	return Wrap(cause, CategoryStageTimeout, SeverityError, "tool timed out").
		WithContext("tool", tool)
}

func FileSystemError(operation string, cause error) *Error {
	return Wrap(cause, CategoryFileSystem, SeverityError, "filesystem operation failed").
		WithContext("operation", operation)
}

// Internal

func InternalError(message string, cause error) *Error {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
