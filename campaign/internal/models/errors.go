package models

import "errors"

// ErrMissingContact is returned when a log is built without an explicit contact
// and no current contact can be resolved.
var ErrMissingContact = errors.New("no current contact")
