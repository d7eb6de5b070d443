package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Base carries the identity and lifecycle timestamps every stored document
// has. DeletedAt is set when a document is soft deleted.
type Base struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt"`
}

func (b *Base) Meta() *Base { return b }

// Removed reports whether the document has been soft deleted.
func (b *Base) Removed() bool { return b.DeletedAt != nil }

// Document is implemented by every stored entity through its embedded Base.
type Document interface {
	Meta() *Base
}

// Owned documents belong to a user. An empty owner means the document is
// shared.
type Owned interface {
	Owner() string
}

// Keyed documents expose a secondary lookup key (a user's email, a
// babysitter day's date).
type Keyed interface {
	Key() string
}

type Validator interface {
	Validate() error
}

// Linker lists the references a document holds. Path is the dotted
// populate path of the reference from the document root.
type Linker interface {
	Links() []Link
}

// Pruner drops list entries whose references were marked stale.
type Pruner interface {
	Prune()
}

type Link struct {
	Path       string
	Collection string
	Ref        *Ref
	List       bool
}

// Ref is a reference to another document. It is stored and accepted as the
// target's id; once populated it serializes as the full target document.
type Ref struct {
	ID    string
	doc   Document
	stale bool
}

func NewRef(id string) Ref { return Ref{ID: id} }

func (r Ref) IsZero() bool { return r.ID == "" }

// Doc returns the populated target, or nil.
func (r Ref) Doc() Document { return r.doc }

func (r *Ref) Populate(doc Document) { r.doc = doc }

// MarkStale flags a reference whose target is missing or soft deleted.
func (r *Ref) MarkStale() { r.stale = true }

func (r Ref) Stale() bool { return r.stale }

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.doc != nil {
		return json.Marshal(r.doc)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID)
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	var obj struct {
		ID       string `json:"id"`
		LegacyID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("reference must be an id or an object with an id")
	}
	id := obj.ID
	if id == "" {
		id = obj.LegacyID
	}
	*r = Ref{ID: id}
	return nil
}

// Icon is an uploaded image stored inline with its document.
type Icon struct {
	Data        []byte `json:"data"`
	ContentType string `json:"contentType"`
}

// keep returns the entries of refs that are not stale. The result is never
// nil so lists serialize as [].
func keep(refs []Ref) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		if !r.stale {
			out = append(out, r)
		}
	}
	return out
}

func refLinks(path, collection string, refs []Ref) []Link {
	links := make([]Link, 0, len(refs))
	for i := range refs {
		links = append(links, Link{Path: path, Collection: collection, Ref: &refs[i], List: true})
	}
	return links
}
