// Package repository implements MySQL persistence for the portal.  Sentinel
// errors defined here let handlers map storage failures onto the HTTP
// status taxonomy without string matching.
package repository

import "errors"

// ErrPhoneExists is returned when an insert or update would duplicate the
// unique users.phone column. Handlers translate this into HTTP 409.
var ErrPhoneExists = errors.New("phone already exists")
