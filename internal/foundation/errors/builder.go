package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// defaults holds the severity and retry strategy each category starts with.
var defaults = map[ErrorCategory]struct {
	severity ErrorSeverity
	retry    RetryStrategy
}{
	CategoryConfig:     {SeverityFatal, RetryUserAction},
	CategoryValidation: {SeverityFatal, RetryUserAction},
	CategoryNotFound:   {SeverityError, RetryUserAction},
	CategoryFileSystem: {SeverityError, RetryBackoff},
	CategoryNotify:     {SeverityWarning, RetryBackoff},
	CategoryRuntime:    {SeverityFatal, RetryNever},
	CategoryInternal:   {SeverityFatal, RetryNever},
}

// NewError starts an error in category with the category's default severity
// and retry strategy. Categories without defaults are plain errors that are
// never retried.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	b := &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
	}}
	if d, ok := defaults[category]; ok {
		b.err.severity, b.err.retry = d.severity, d.retry
	}
	return b
}

// WrapError starts an error in category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused; later changes do not
// affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	err := b.err
	err.context = maps.Clone(b.err.context)
	return &err
}

func ConfigError(message string) *ErrorBuilder     { return NewError(CategoryConfig, message) }
func ValidationError(message string) *ErrorBuilder { return NewError(CategoryValidation, message) }
func NotFoundError(message string) *ErrorBuilder   { return NewError(CategoryNotFound, message) }

// ToolchainError reports a compiler process that could not be started.
func ToolchainError(message string) *ErrorBuilder { return NewError(CategoryToolchain, message) }

// DependencyError reports an unusable dependency listing.
func DependencyError(message string) *ErrorBuilder { return NewError(CategoryDependency, message) }

func BuildError(message string) *ErrorBuilder      { return NewError(CategoryBuild, message) }
func FileSystemError(message string) *ErrorBuilder { return NewError(CategoryFileSystem, message) }
func HistoryError(message string) *ErrorBuilder    { return NewError(CategoryHistory, message) }

// NotifyError reports a lost build notification; it never fails a build.
func NotifyError(message string) *ErrorBuilder { return NewError(CategoryNotify, message) }

func RuntimeError(message string) *ErrorBuilder  { return NewError(CategoryRuntime, message) }
func InternalError(message string) *ErrorBuilder { return NewError(CategoryInternal, message) }
