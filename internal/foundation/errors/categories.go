package errors

// ErrorCategory routes an error to an exit code and a log level.
type ErrorCategory string

const (
	// User input: configuration files, flags, project layout.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// The external compiler could not be launched, or its dependency listing was unusable.
	CategoryToolchain  ErrorCategory = "toolchain"
	CategoryDependency ErrorCategory = "dependency"

	// Build output and the stores written alongside it.
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryHistory    ErrorCategory = "history"
	CategoryNotify     ErrorCategory = "notify"

	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the run
	SeverityError   ErrorSeverity = "error"   // Fails the current file, target or command
	SeverityWarning ErrorSeverity = "warning" // Build continues, e.g. a lost notification
)

// RetryStrategy indicates whether retrying can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"   // Permanent failure
	RetryBackoff    RetryStrategy = "backoff" // Transient, retry with backoff
	RetryUserAction RetryStrategy = "user"    // Fix the input and run again
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}
