package model

import (
	"errors"
)

var (
	ErrAlreadyExists = errors.New("object already exists")
	ErrNotFound      = errors.New("not found")

	// ErrSourceUnavailable means the upstream catalog call failed or returned
	// a non-success response. The sync pass aborts with the store untouched.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrCorruptStore means the persisted state failed to parse. Fatal for the
	// pass: the store must not be silently replaced with an empty one.
	ErrCorruptStore = errors.New("corrupt store")

	// ErrInvalidRequest marks malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrConfigurationMissing means no credential is available for the source,
	// reported distinctly from a transient upstream failure.
	ErrConfigurationMissing = errors.New("configuration missing")
)
