package errors

import "errors"

var (
	ErrHelp           = errors.New("")
	ErrModeFlag       = errors.New("mode flag is required")
	ErrUnknownService = errors.New("unknown service, write --help command to see valid services")

	ErrFieldIsEmpty = errors.New("field is empty")

	// Local store errors are fatal to the operation and surfaced to the caller.
	ErrStorageUnavailable = errors.New("local store unavailable")
	ErrPersistenceFailed  = errors.New("local write failed")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTableNotFound      = errors.New("table not found")

	// Remote mirror errors are absorbed at the gateway boundary and never
	// reach a caller.
	ErrRemoteUnavailable = errors.New("remote mirror unavailable")
	ErrRemoteWriteFailed = errors.New("remote write failed")
)
