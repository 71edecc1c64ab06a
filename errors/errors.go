/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity or a registered component is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when registering a name twice
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrLoadFailed is matched by every error returned from a loader call
	ErrLoadFailed = errors.New("loader failed")

	// ErrNoLoader is returned when fetching from a store built without a loader
	ErrNoLoader = errors.New("no loader configured")

	// ErrPatchFailed is matched by errors raised while patching a cached item
	ErrPatchFailed = errors.New("patch failed")

	// ErrNoIndexMap is returned when no index map is registered for a store
	ErrNoIndexMap = errors.New("no index map found for store")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when a name is already registered
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// LoadError wraps an error returned by a loader function.
type LoadError struct {
	Store string
	Op    string
	Key   string
	Err   error
}

func (e *LoadError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Store, e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoadFailed
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// PatchError records a failure while applying an update to one cached item.
type PatchError struct {
	Key    string
	Reason any
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch of %q failed: %v", e.Key, e.Reason)
}

func (e *PatchError) Is(target error) bool {
	return target == ErrPatchFailed
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewLoadError creates a new LoadError
func NewLoadError(store, op, key string, err error) error {
	return &LoadError{Store: store, Op: op, Key: key, Err: err}
}

// NewPatchError creates a new PatchError
func NewPatchError(key string, reason any) error {
	return &PatchError{Key: key, Reason: reason}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsLoadError checks if an error came from a loader
func IsLoadError(err error) bool {
	return errors.Is(err, ErrLoadFailed)
}
