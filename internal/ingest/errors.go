package ingest

import "errors"

// ErrNoText is returned when the selected artifact field is absent or empty.
var ErrNoText = errors.New("no text in selected field")
