// Package events describes changes made through the API so they can be fanned
// out to live clients and to the message broker.
package events

import (
	"context"
	"time"
)

type Action string

const (
	Created Action = "created"
	Updated Action = "updated"
	Deleted Action = "deleted"
)

// Change is emitted after a successful write. Owner is empty for documents
// that are not owned by a user.
type Change struct {
	Entity string    `json:"entity"`
	Action Action    `json:"action"`
	ID     string    `json:"id"`
	Owner  string    `json:"owner,omitempty"`
	At     time.Time `json:"at"`
}

// Type is the "<entity>_<action>" name of the change.
func (c Change) Type() string {
	return c.Entity + "_" + string(c.Action)
}

// Notifier receives changes. Implementations must not block the request for
// long and report their own failures.
type Notifier interface {
	Notify(ctx context.Context, c Change)
}

// Fanout delivers a change to every notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, c Change) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, c)
		}
	}
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Change)

func (fn NotifierFunc) Notify(ctx context.Context, c Change) { fn(ctx, c) }
