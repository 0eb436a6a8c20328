package eventstorage

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by collections for records or queries
	// they refuse to process.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStorageFailed matches every *StorageFailedError.
	ErrStorageFailed = errors.New("event storage failed")

	// ErrRetrievalFailed matches every *RetrievalFailedError.
	ErrRetrievalFailed = errors.New("event retrieval failed")

	// ErrQueryFailed matches every *QueryFailedError.
	ErrQueryFailed = errors.New("event query failed")
)

// StorageFailedError is returned by Save when the collection rejected or
// could not complete a write. Events after the failing one were not written.
type StorageFailedError struct {
	AggregateRootID string
	Err             error
}

func (e *StorageFailedError) Error() string {
	return fmt.Sprintf("failed to store event(s) for aggregate with aggregate root id %s: %v", e.AggregateRootID, e.Err)
}

func (e *StorageFailedError) Unwrap() error {
	return e.Err
}

func (e *StorageFailedError) Is(target error) bool {
	return target == ErrStorageFailed
}

// RetrievalFailedError is returned by Load when a stored record cannot be
// turned back into an event. Err is nil when no registered type matches Type.
type RetrievalFailedError struct {
	Type string
	Err  error
}

func (e *RetrievalFailedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not find an event type for type '%s'", e.Type)
	}
	return fmt.Sprintf("could not rebuild event of type '%s': %v", e.Type, e.Err)
}

func (e *RetrievalFailedError) Unwrap() error {
	return e.Err
}

func (e *RetrievalFailedError) Is(target error) bool {
	return target == ErrRetrievalFailed
}

// QueryFailedError is returned by Load when the collection could not be read.
type QueryFailedError struct {
	AggregateRootID string
	Err             error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("failed to load events for aggregate with aggregate root id %s: %v", e.AggregateRootID, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}

func (e *QueryFailedError) Is(target error) bool {
	return target == ErrQueryFailed
}
