package errors

import "fmt"

// MalformedKey creates an error for a scene item key that cannot be decoded
func MalformedKey(key string, cause error) *WidgetError {
	return Wrap(cause, ErrCodeMalformedKey, fmt.Sprintf("malformed scene item key: %q", key)).
		WithDetail("key", key)
}

// NotFound creates an error for a key missing from the scene directory
func NotFound(key string) *WidgetError {
	return New(ErrCodeNotFound, fmt.Sprintf("scene item %q not found", key)).
		WithDetail("key", key)
}

// DirectoryFetchFailed creates an error for a failed scene list snapshot
func DirectoryFetchFailed(err error) *WidgetError {
	return Wrap(err, ErrCodeDirectoryFetchFailed, "failed to fetch scene list")
}

// SourceNotFound creates an error for a scene item the control service no longer knows
func SourceNotFound(scene, source string, reason string) *WidgetError {
	return New(ErrCodeSourceNotFound,
		fmt.Sprintf("source '%s' not found in scene '%s': %s", source, scene, reason)).
		WithDetail("scene", scene).
		WithDetail("source", source)
}

// Transport creates an error for a failed or timed out round trip
func Transport(op string, err error) *WidgetError {
	return Wrap(err, ErrCodeTransport, fmt.Sprintf("%s failed", op)).
		WithDetail("op", op)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *WidgetError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// Unauthorized creates an authentication failure error
func Unauthorized(reason string) *WidgetError {
	return New(ErrCodeUnauthorized, reason)
}

// InvalidInput creates an invalid input error
func InvalidInput(reason string) *WidgetError {
	return New(ErrCodeInvalidInput, reason)
}
