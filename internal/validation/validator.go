// Statforge - Sports Statistics Ingestion and Canonicalization
// Copyright 2026 Statforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/statforge/statforge

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton.
//
// The pipeline validates each document payload exactly once, at the
// deserialization boundary: a payload that fails produces a single
// malformed-document drop instead of scattered nil checks deep inside
// processors.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// ValidationError describes every field that failed validation on one
// struct, collapsed into a single error.
type ValidationError struct {
	fields []string
}

// Fields returns the struct fields that failed validation.
func (e *ValidationError) Fields() []string {
	return e.fields
}

// Error returns a human-readable summary.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.fields, ", "))
}

// getValidator returns the singleton instance, initializing it on first use.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct validates a struct's `validate` tags. Returns a
// *ValidationError listing every failed field, or nil when valid.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: the caller passed a non-struct.
		return fmt.Errorf("validate: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return &ValidationError{fields: fields}
}
