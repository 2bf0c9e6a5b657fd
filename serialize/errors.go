// SPDX-License-Identifier: MIT

package serialize

import "errors"

// Sentinel errors.
var (
	// ErrTagNotFound is returned when no payload is stored under the tag.
	ErrTagNotFound = errors.New("serialize: tag not found")

	// ErrEmptyTag is returned for the empty tag.
	ErrEmptyTag = errors.New("serialize: empty tag")

	// ErrNilValue is returned when Save or Load receives a nil value.
	ErrNilValue = errors.New("serialize: nil value")

	// ErrCorrupt is returned for a damaged record or stream.
	ErrCorrupt = errors.New("serialize: corrupt data")
)
