package resume

import "errors"

// ErrNotFound is returned when a resume does not exist or is not owned by
// the caller. The two cases are deliberately indistinguishable so lookups
// cannot be used to probe for other users' resume ids.
var ErrNotFound = errors.New("resume not found")

// errVersionConflict signals that a concurrent writer committed between our
// read and our compare-and-increment. It never escapes the store; the
// mutation is retried on a fresh snapshot.
var errVersionConflict = errors.New("resume version conflict")
