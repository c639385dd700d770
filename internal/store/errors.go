package store

import "errors"

var (
	// ErrNotFound indicates the requested IMO has no record.
	ErrNotFound = errors.New("emission record not found")
	// ErrDuplicateIMO indicates an insert collided with an existing IMO.
	ErrDuplicateIMO = errors.New("imo already exists")
)
