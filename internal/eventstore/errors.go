package eventstore

import (
	"git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

// Sentinel errors for run history operations. Each failure wraps one of these
// so callers can match with errors.Is.
var (
	ErrDatabaseOpenFailed     = errors.EventStoreError("could not open run history database").Build()
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize run history schema").Build()
	ErrEventAppendFailed      = errors.EventStoreError("failed to append event to store").Build()
	ErrEventQueryFailed       = errors.EventStoreError("failed to query events from store").Build()
	ErrMarshalPayloadFailed   = errors.EventStoreError("failed to marshal event payload").Build()
)

func wrap(sentinel *errors.ClassifiedError, err error) error {
	return errors.WrapError(err, errors.CategoryEventStore, sentinel.Message()).Build()
}
