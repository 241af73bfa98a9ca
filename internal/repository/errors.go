package repository

import "errors"

// ErrNotFound indicates an entity was not located. Owner-scoped lookups
// return it for records owned by a different account, so callers cannot
// distinguish "absent" from "not yours".
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates an insert violated a uniqueness constraint.
var ErrConflict = errors.New("repository: conflict")
