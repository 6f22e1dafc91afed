package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnreachable classifies a remote-store failure as transient
// connectivity loss. Mutations failing with it are applied optimistically
// and queued for replay; any other failure leaves state untouched.
var ErrUnreachable = errors.New("remote store unreachable")

// IsUnreachable reports whether err is a connectivity failure.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// Document is one raw record as held by the remote store. Data carries the
// full JSON body including the id and server-maintained timestamps.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Gateway abstracts the remote document store per named collection. Writes
// set or refresh the server-assigned created/updated timestamps inside the
// stored body.
type Gateway interface {
	ListAll(ctx context.Context, collection string) ([]Document, error)
	Create(ctx context.Context, collection string, payload any) (string, error)
	Update(ctx context.Context, collection, id string, payload any) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe registers a change listener for one collection and returns
	// an unsubscribe function. The handler receives the collection name.
	Subscribe(collection string, onChange func(collection string), onError func(error)) (func(), error)
}
