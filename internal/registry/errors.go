package registry

import "errors"

// Common errors for registry operations. Every mutating entry point fails
// with one of these (or a validation error from internal/color) before any
// state is touched.
var (
	// ErrUnauthorized is returned when a caller other than the
	// administrator attempts an administrator-only operation.
	ErrUnauthorized = errors.New("caller is not the administrator")

	// ErrRendererAlreadySet is returned when the renderer identity has
	// already been assigned. Assignment happens exactly once.
	ErrRendererAlreadySet = errors.New("renderer already assigned")

	// ErrNotRenderer is returned when a renderer-gated call is made by
	// any other identity, including before a renderer is assigned.
	ErrNotRenderer = errors.New("caller is not the renderer")

	// ErrUnknownCollection is returned for item-scoped writes against a
	// collection that is not on the allow-list.
	ErrUnknownCollection = errors.New("collection is not allow-listed")

	// ErrOwnershipMismatch is returned when the claimed owner does not
	// match the ownership oracle at call time. An item the oracle does
	// not know about surfaces identically.
	ErrOwnershipMismatch = errors.New("claimed owner does not own the item")
)
