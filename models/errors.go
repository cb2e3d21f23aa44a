package models

import "github.com/pkg/errors"

var (
	// ErrUnknownNode is returned when a link references a node id not in the payload.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode is returned when two nodes share an id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrEmptyID is returned for a node without an id.
	ErrEmptyID = errors.New("empty node id")

	// ErrInvalidValue is returned for a negative or non-finite link value.
	ErrInvalidValue = errors.New("invalid link value")
)
