package errs

import "fmt"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// InvalidAudioError is the normal negative result of transcription: blank
// text, silence, or an input the speech-to-text provider could not use.
type InvalidAudioError struct {
	ErrorMessage
	Err error
}

func (e *InvalidAudioError) Unwrap() error { return e.Err }

// ExternalServiceError is a fault in a language-understanding or
// speech-to-text provider with no local fallback.
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// SynthesisError is a speech-synthesis failure. There is no fallback audio,
// so it always fails the request.
type SynthesisError struct {
	ErrorMessage
	Provider string
	Err      error
}

func (e *SynthesisError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("synthesis [%s]: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("synthesis [%s]: %s: %v", e.Provider, e.Message, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("database %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("database %s: %s: %v", e.Operation, e.Message, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewInvalidAudioError(message string, err error) *InvalidAudioError {
	return &InvalidAudioError{
		ErrorMessage: ErrorMessage{Message: message},
		Err:          err,
	}
}

func NewExternalServiceError(service, message string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

func NewSynthesisError(provider string, err error) *SynthesisError {
	return &SynthesisError{
		ErrorMessage: ErrorMessage{Message: "Voice synthesis failed"},
		Provider:     provider,
		Err:          err,
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}
