package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services. Handlers map them to HTTP
// status codes in one place.
var (
	ErrTrailNotFound       = errors.New("trail not found")
	ErrModuleNotFound      = errors.New("module not found")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrAttemptNotFound     = errors.New("attempt not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrCertificateNotFound = errors.New("certificate not found")

	ErrNotEnrolled        = errors.New("student is not enrolled in this trail")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this trail")
	ErrTrailNotPublished  = errors.New("trail is not published")
	ErrModuleLocked       = errors.New("module prerequisites are not completed")
	ErrNotAQuizModule     = errors.New("module is not a quiz")
	ErrNotAProjectModule  = errors.New("module is not a project")
	ErrAttemptNotActive   = errors.New("attempt is not in progress")
	ErrAttemptTimeExpired = errors.New("attempt time limit has expired")
	ErrMaxAttemptsReached = errors.New("maximum attempts reached")
	ErrSubmissionClosed   = errors.New("submission was already reviewed")
	ErrPrerequisiteCycle  = errors.New("module prerequisites form a cycle")
)

// PermissionError carries who tried what on which resource, for
// logging and for the 403 body.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d: %s",
		e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}
