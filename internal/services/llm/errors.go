package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProvider is returned when a requested identity is not in
// the fixed provider set.
var ErrUnknownProvider = errors.New("unknown provider")

// UnavailableError indicates the provider has no valid credential.
// No network call was attempted.
type UnavailableError struct {
	Provider Identity
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("provider %s is not configured", e.Provider)
}

// GenerationError indicates the upstream LLM call failed
type GenerationError struct {
	Provider Identity
	Model    string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on %s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is a provider configuration error
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsGenerationFailed reports whether err is an upstream generation failure
func IsGenerationFailed(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// isModelRejected checks whether an upstream error indicates the
// requested model identifier was rejected by the backend.
func isModelRejected(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	if !strings.Contains(errStr, "model") {
		return false
	}
	return strings.Contains(errStr, "not_found") ||
		strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "invalid")
}
