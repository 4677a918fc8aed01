package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *GrupError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func UsageError(reason string) *GrupError {
	return New(CategoryValidation, SeverityFatal, "invalid usage").
		WithContext("reason", reason)
}

// Document pipeline errors

func RenderError(cause error) *GrupError {
	return Wrap(cause, CategoryRender, SeverityError, "markdown render failed")
}

func FileAccessError(path string, cause error) *GrupError {
	return Wrap(cause, CategoryFileSystem, SeverityError, "source file unreadable").
		WithContext("path", path)
}

// Server errors

func BindError(addr string, cause error) *GrupError {
	return Wrap(cause, CategoryBind, SeverityFatal, "listen address unavailable").
		WithContext("address", addr)
}

func WatchError(path string, cause error) *GrupError {
	return Wrap(cause, CategoryRuntime, SeverityWarning, "file watch degraded").
		WithContext("path", path)
}

func InternalError(message string, cause error) *GrupError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
