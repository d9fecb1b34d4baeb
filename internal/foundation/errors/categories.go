package errors

// ErrorCategory groups errors by what went wrong from the user's point of
// view. Each category maps to one process exit code.
type ErrorCategory string

const (
	// Usage and project state.
	CategoryValidation    ErrorCategory = "validation"
	CategoryUninitialized ErrorCategory = "uninitialized"
	CategoryAlreadyExists ErrorCategory = "already_exists"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryConfig        ErrorCategory = "config"

	// Collaborators outside the process.
	CategoryExternalTool ErrorCategory = "external_tool"
	CategoryNetwork      ErrorCategory = "network"
	CategoryGit          ErrorCategory = "git"
	CategoryMetadata     ErrorCategory = "metadata"

	// Producing the site.
	CategoryBuild      ErrorCategory = "build"
	CategoryTemplate   ErrorCategory = "template"
	CategoryFileSystem ErrorCategory = "filesystem"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ExitCodeGeneric is used for errors that carry no category.
const ExitCodeGeneric = 1

var exitCodes = map[ErrorCategory]int{
	CategoryValidation:    2,
	CategoryUninitialized: 3,
	CategoryAlreadyExists: 3,
	CategoryNotFound:      4,
	CategoryConfig:        7,
	CategoryExternalTool:  8,
	CategoryNetwork:       8,
	CategoryGit:           8,
	CategoryMetadata:      9,
	CategoryInternal:      10,
	CategoryBuild:         11,
	CategoryTemplate:      11,
	CategoryFileSystem:    11,
	CategoryRuntime:       12,
}

// ExitCode returns the process exit code for the category.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return ExitCodeGeneric
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution completely
	SeverityError   ErrorSeverity = "error"   // Fails the current operation
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// RetryStrategy tells the caller whether running the operation again can
// succeed.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

// Context keys the CLI adapter knows how to present.
const (
	KeyStderr   = "stderr"
	KeyStatus   = "status"
	KeyLocation = "location"
	KeyCommand  = "command"
	KeyHint     = "hint"
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
