// Package errors provides centralized error handling with categories and
// structured context, wrapping the standard library errors package.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization.
type ErrorCategory string

const (
	CategoryModelInit     ErrorCategory = "model-initialization"
	CategoryModelLoad     ErrorCategory = "model-loading"
	CategoryValidation    ErrorCategory = "validation"
	CategoryFileIO        ErrorCategory = "file-io"
	CategoryImageDecode   ErrorCategory = "image-decode"
	CategoryThreshold     ErrorCategory = "threshold-mgmt"
	CategoryInference     ErrorCategory = "inference"
	CategoryResource      ErrorCategory = "resource-exhaustion"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryEvaluation    ErrorCategory = "evaluation"
	CategoryGeneric       ErrorCategory = "generic"
)

// ErrResourceExhausted is the sentinel for allocation failures in an
// inference backend. The batched runner retries once at batch size 1 when it
// sees this condition.
var ErrResourceExhausted = stderrors.New("resource exhausted")

// EnhancedError wraps an error with a component, a category and context data.
type EnhancedError struct {
	Err       error
	Component string
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time
}

// Error implements the error interface.
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface.
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is reports category equality when the target is also an EnhancedError,
// otherwise defers to the wrapped chain.
func (ee *EnhancedError) Is(target error) bool {
	if other, ok := target.(*EnhancedError); ok {
		return ee.Category == other.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetContext returns a copy of the context data.
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ee.Context))
	maps.Copy(out, ee.Context)
	return out
}

// ErrorBuilder provides a fluent interface for creating enhanced errors.
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a builder wrapping err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Newf creates a builder wrapping a formatted error.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component where the error occurred.
func (b *ErrorBuilder) Component(component string) *ErrorBuilder {
	b.component = component
	return b
}

// Category sets the error category.
func (b *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	b.category = category
	return b
}

// Context adds a key/value pair of context data.
func (b *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]any)
	}
	b.context[key] = value
	return b
}

// Build creates the final error.
func (b *ErrorBuilder) Build() error {
	category := b.category
	if category == "" {
		category = CategoryGeneric
	}
	return &EnhancedError{
		Err:       b.err,
		Component: b.component,
		Category:  category,
		Context:   b.context,
		Timestamp: time.Now(),
	}
}

// IsResourceExhaustion reports whether err signals an allocation failure,
// either via the sentinel or via the resource category.
func IsResourceExhaustion(err error) bool {
	if stderrors.Is(err, ErrResourceExhausted) {
		return true
	}
	var ee *EnhancedError
	return stderrors.As(err, &ee) && ee.Category == CategoryResource
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
