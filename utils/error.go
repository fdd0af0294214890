package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// ErrorStoreUnavailable aborts an audit run: without reliable reads the
	// integrity report would be misleading.
	ErrorStoreUnavailable = errors.New("data store unavailable")
)
