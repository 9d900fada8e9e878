// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package purchase listens for book purchase events published by the
transaction service.

Architecture:

  - Event: the JSON message on the bus; only event == "book_purchase" is handled.
  - Consumer: a Redis pub/sub subscriber run as a supervised service.
  - Handler: receives decoded purchases; the default one resolves the buyer
    through the account store.

Messages that cannot be decoded or lack required fields are logged and
dropped. Nothing is retried.
*/
package purchase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/taibuivan/bookshelf-users/internal/platform/constants"
)

// Decoding outcomes that cause a message to be dropped.
var (
	ErrMalformedMessage = errors.New("purchase: malformed message")
	ErrMissingField     = errors.New("purchase: missing required field")

	// ErrUnhandledEvent marks well-formed messages for other event types.
	ErrUnhandledEvent = errors.New("purchase: unhandled event type")
)

// ID is an identifier the publisher may encode as a JSON string or number.
type ID string

// UnmarshalJSON accepts "42" and 42 alike. null leaves the ID empty.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*id = ID(text)
		return nil
	default:
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		*id = ID(number.String())
		return nil
	}
}

// Int64 parses the ID as a base-10 integer.
func (id ID) Int64() (int64, error) {
	return strconv.ParseInt(string(id), 10, 64)
}

// Event is one message from the purchases destination.
type Event struct {
	Event           string `json:"event"`
	UserID          ID     `json:"userId"`
	BookID          ID     `json:"bookId"`
	TransactionType string `json:"transactionType,omitempty"`
}

// ParseEvent decodes payload and checks it is a complete purchase event.
//
// The returned error wraps [ErrMalformedMessage], [ErrUnhandledEvent] or
// [ErrMissingField]. Unknown fields are ignored.
func ParseEvent(payload []byte) (*Event, error) {
	event := &Event{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	if event.Event != constants.PurchaseEventName {
		return event, fmt.Errorf("%w: %q", ErrUnhandledEvent, event.Event)
	}

	switch {
	case event.UserID == "":
		return event, fmt.Errorf("%w: userId", ErrMissingField)
	case event.BookID == "":
		return event, fmt.Errorf("%w: bookId", ErrMissingField)
	}

	return event, nil
}
