package eventstore

import "errors"

// Sentinel errors for event store operations. Returned errors wrap them so
// callers can classify with errors.Is.
var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.New("could not open event store database")

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.New("failed to initialize event store schema")

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.New("failed to append event to store")

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.New("failed to query events from store")

	// ErrMarshalPayloadFailed indicates JSON marshaling of event payload failed.
	ErrMarshalPayloadFailed = errors.New("failed to marshal event payload")

	// ErrNoBuilds indicates the store holds no events yet.
	ErrNoBuilds = errors.New("no builds recorded")
)
