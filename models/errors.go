package models

import "errors"

// Error kinds surfaced by the loader, the binner and configuration checks.
// Callers match them with errors.Is; the wrapped message carries the detail.
var (
	ErrIO     = errors.New("io error")
	ErrParse  = errors.New("parse error")
	ErrConfig = errors.New("config error")
)
