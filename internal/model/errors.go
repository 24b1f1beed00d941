package model

import (
	"fmt"
	"strings"
	"unicode"
)

// ResourceError represents a font, image or color profile that could not be used
type ResourceError struct {
	Resource string
	Path     string
	Message  string
	Cause    error
}

func (e *ResourceError) Error() string {
	name := e.Resource
	if e.Path != "" {
		name = fmt.Sprintf("%s %q", e.Resource, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("resource %s: %s (%v)", name, e.Message, e.Cause)
	}
	return fmt.Sprintf("resource %s: %s", name, e.Message)
}

func (e *ResourceError) Unwrap() error {
	return e.Cause
}

// NewResourceError creates a new resource error
func NewResourceError(resource, path, message string, cause error) *ResourceError {
	return &ResourceError{
		Resource: resource,
		Path:     path,
		Message:  message,
		Cause:    cause,
	}
}

// StructureError represents a malformed or incomplete PDF object graph
type StructureError struct {
	Stage   string
	Object  string
	Message string
	Cause   error
}

func (e *StructureError) Error() string {
	prefix := e.Stage
	if e.Object != "" {
		prefix = fmt.Sprintf("%s %s", e.Stage, e.Object)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *StructureError) Unwrap() error {
	return e.Cause
}

// NewStructureError creates a new structure error
func NewStructureError(stage, object, message string, cause error) *StructureError {
	return &StructureError{
		Stage:   stage,
		Object:  object,
		Message: message,
		Cause:   cause,
	}
}

// EncodingError represents a failure while producing an XML e-invoice
type EncodingError struct {
	Profile string
	Field   string
	Message string
	Cause   error
}

func (e *EncodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Profile, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Profile, e.Field, e.Message)
}

func (e *EncodingError) Unwrap() error {
	return e.Cause
}

// NewEncodingError creates a new encoding error
func NewEncodingError(profile, field, message string, cause error) *EncodingError {
	return &EncodingError{
		Profile: profile,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed on %s: %s (value=%v, rule=%s)", e.Field, e.Message, e.Value, e.Rule)
	}
	return fmt.Sprintf("validation failed on %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// Sanitize drops control characters that are not representable in XML
// text or PDF string objects. Tabs and line breaks become single spaces,
// invalid UTF-8 bytes become U+FFFD.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r':
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
