package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyFeed is wrapped by FetchError when the feed responds with no body.
var ErrEmptyFeed = errors.New("empty feed body")

// FetchError reports a transport failure, non-2xx response, or empty body.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a malformed feed document or item.
type ParseError struct {
	ItemID string
	Err    error
}

func (e *ParseError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("parse feed item %s: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("parse feed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownTypeCodeError reports a disaster type code outside the closed mapping table.
type UnknownTypeCodeError struct {
	Code   string
	ItemID string
}

func (e *UnknownTypeCodeError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("unknown disaster type code %q in item %s", e.Code, e.ItemID)
	}
	return fmt.Sprintf("unknown disaster type code %q", e.Code)
}

// PersistenceError reports a failed store operation on a single record.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s disaster %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
