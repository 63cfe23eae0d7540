package usecase

import (
	"errors"

	"github.com/lheh1167/slack-pair-bot/pkg/service/directory"
)

// Sentinel errors for use case layer. Only these abort a whole operation;
// per-line and per-pair problems are reported as data.
var (
	// ErrDirectoryUnavailable means no directory snapshot could be built
	ErrDirectoryUnavailable = directory.ErrDirectoryUnavailable

	// ErrAuthorizationDenied means the caller may not use pairing
	ErrAuthorizationDenied = errors.New("caller is not authorized")
)

// Context keys for error values
const (
	CallerIDKey   = "caller_id"
	RunIDKey      = "run_id"
	LineNumberKey = "line_number"
	EmailKey      = "email"
)
