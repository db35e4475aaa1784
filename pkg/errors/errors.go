package errors

import "fmt"

// Error codes for the gamification engine.
const (
	// Expression errors
	ErrCodeExpression = "EXPRESSION_ERROR"

	// Domain errors
	ErrCodeUnknownVariable     = "UNKNOWN_VARIABLE"
	ErrCodeAchievementNotFound = "ACHIEVEMENT_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodePermissionDenied    = "PERMISSION_DENIED"

	// Concurrency errors
	ErrCodeConflict = "CONFLICT"

	// Database errors
	ErrCodeDatabaseError = "DATABASE_ERROR"

	// Config errors
	ErrCodeConfigInvalid = "CONFIG_INVALID"
)

// EngineError represents an error raised by the evaluation core.
type EngineError struct {
	Code    string
	Message string
	Err     error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// NewEngineError creates a new EngineError.
func NewEngineError(code, message string, err error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether err is an EngineError carrying the given code.
func HasCode(err error, code string) bool {
	for err != nil {
		if ee, ok := err.(*EngineError); ok && ee.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Domain-specific error constructors

// ErrExpression returns an error for a malformed or unbound expression.
func ErrExpression(source string, err error) *EngineError {
	return &EngineError{
		Code:    ErrCodeExpression,
		Message: fmt.Sprintf("failed to evaluate expression %q", source),
		Err:     err,
	}
}

// ErrUnknownVariable returns an error when a variable name cannot be resolved.
func ErrUnknownVariable(name string) *EngineError {
	return &EngineError{
		Code:    ErrCodeUnknownVariable,
		Message: fmt.Sprintf("unknown variable: %s", name),
		Err:     nil,
	}
}

// ErrAchievementNotFound returns an error when an achievement is not found.
func ErrAchievementNotFound(achievementID int64) *EngineError {
	return &EngineError{
		Code:    ErrCodeAchievementNotFound,
		Message: fmt.Sprintf("achievement not found: %d", achievementID),
		Err:     nil,
	}
}

// ErrUserNotFound returns an error when a user is not found.
func ErrUserNotFound(userID int64) *EngineError {
	return &EngineError{
		Code:    ErrCodeUserNotFound,
		Message: fmt.Sprintf("user not found: %d", userID),
		Err:     nil,
	}
}

// ErrPermissionDenied returns an error when a variable update is not allowed.
func ErrPermissionDenied(variableName string, userID int64) *EngineError {
	return &EngineError{
		Code:    ErrCodePermissionDenied,
		Message: fmt.Sprintf("not allowed to increase %q for user %d", variableName, userID),
		Err:     nil,
	}
}

// ErrConflict returns an error when a concurrent writer already applied the change.
// The achievement evaluator treats this as "level already awarded" and re-reads state.
func ErrConflict(detail string) *EngineError {
	return &EngineError{
		Code:    ErrCodeConflict,
		Message: detail,
		Err:     nil,
	}
}

// ErrDatabaseError wraps persistence failures.
func ErrDatabaseError(operation string, err error) *EngineError {
	return &EngineError{
		Code:    ErrCodeDatabaseError,
		Message: fmt.Sprintf("database error during %s", operation),
		Err:     err,
	}
}

// ErrConfigInvalid returns an error for invalid configuration.
func ErrConfigInvalid(reason string) *EngineError {
	return &EngineError{
		Code:    ErrCodeConfigInvalid,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
		Err:     nil,
	}
}
