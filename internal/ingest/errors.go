package ingest

import "errors"

// ErrInvalidInput marks caller mistakes (missing user, bad file name).
var ErrInvalidInput = errors.New("invalid input")
