package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/model"
)

// DeletePolicy decides what Delete does to a document.
type DeletePolicy int

const (
	// SoftDelete sets deletedAt and keeps the row.
	SoftDelete DeletePolicy = iota
	// HardDelete removes the row.
	HardDelete
)

// Fields a patch may not change.
var protectedFields = map[string]bool{
	"id": true, "_id": true,
	"createdAt": true, "updatedAt": true, "deletedAt": true,
	"_createdAt": true, "_updatedAt": true, "_deletedAt": true,
}

// Repository implements the entity operations for one collection.
type Repository[T model.Document] struct {
	docs       *DocumentStore
	populator  *populator
	collection string
	name       string
	policy     DeletePolicy
	newDoc     func() T
	conflict   string
	now        func() time.Time
}

// NewRepository returns a repository over collection. name is used in client
// messages ("room not found").
func NewRepository[T model.Document](docs *DocumentStore, collection, name string, policy DeletePolicy, newDoc func() T) *Repository[T] {
	return &Repository[T]{
		docs:       docs,
		populator:  newPopulator(docs),
		collection: collection,
		name:       name,
		policy:     policy,
		newDoc:     newDoc,
		conflict:   name + " already exists",
		now:        time.Now,
	}
}

func (r *Repository[T]) Name() string { return r.name }

func (r *Repository[T]) Policy() DeletePolicy { return r.policy }

// Create assigns identity and timestamps, validates and inserts doc.
func (r *Repository[T]) Create(ctx context.Context, doc T) (T, error) {
	const op = "store.Create"
	var zero T

	now := r.now().UTC()
	meta := doc.Meta()
	meta.ID = uuid.NewString()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.DeletedAt = nil

	if err := validate(doc); err != nil {
		return zero, err
	}
	rec, err := r.record(doc)
	if err != nil {
		return zero, errs.Wrap(err, errs.EInternal, op)
	}
	if err := r.docs.Insert(ctx, r.collection, rec); err != nil {
		return zero, r.translate(err, op)
	}
	return r.shape(ctx, doc, nil, op)
}

// ReadOne returns a live document with the given paths populated.
func (r *Repository[T]) ReadOne(ctx context.Context, id string, spec Paths) (T, error) {
	const op = "store.ReadOne"
	var zero T

	doc, err := r.load(ctx, id, op)
	if err != nil {
		return zero, err
	}
	if doc.Meta().Removed() {
		return zero, errs.Newf(errs.ERemoved, "%s has been removed", r.name)
	}
	return r.shape(ctx, doc, spec, op)
}

// Lookup returns the stored document as is, soft deleted or not.
func (r *Repository[T]) Lookup(ctx context.Context, id string) (T, error) {
	return r.load(ctx, id, "store.Lookup")
}

// ReadAll returns the live documents matching f, oldest first.
func (r *Repository[T]) ReadAll(ctx context.Context, f Filter, spec Paths) ([]T, error) {
	const op = "store.ReadAll"

	bodies, err := r.docs.Find(ctx, r.collection, f)
	if err != nil {
		return nil, r.translate(err, op)
	}
	out := make([]T, 0, len(bodies))
	for _, body := range bodies {
		doc, err := r.decode(body)
		if err != nil {
			return nil, errs.Wrap(err, errs.EInternal, op)
		}
		if doc, err = r.shape(ctx, doc, spec, op); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// FindOne returns the oldest live document matching f.
func (r *Repository[T]) FindOne(ctx context.Context, f Filter, spec Paths) (T, error) {
	var zero T
	docs, err := r.ReadAll(ctx, f, spec)
	if err != nil {
		return zero, err
	}
	if len(docs) == 0 {
		return zero, errs.Newf(errs.ENotFound, "%s not found", r.name)
	}
	return docs[0], nil
}

// Update merges the top-level fields of patch onto the stored document.
func (r *Repository[T]) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (T, error) {
	const op = "store.Update"
	var zero T

	current, err := r.load(ctx, id, op)
	if err != nil {
		return zero, err
	}
	if current.Meta().Removed() {
		return zero, errs.Newf(errs.ERemoved, "%s has been removed", r.name)
	}

	stored, err := json.Marshal(current)
	if err != nil {
		return zero, errs.Wrap(err, errs.EInternal, op)
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(stored, &merged); err != nil {
		return zero, errs.Wrap(err, errs.EInternal, op)
	}
	for field, value := range patch {
		if protectedFields[field] {
			continue
		}
		merged[field] = value
	}
	body, err := json.Marshal(merged)
	if err != nil {
		return zero, errs.Wrap(err, errs.EInternal, op)
	}

	next := r.newDoc()
	if err := json.Unmarshal(body, next); err != nil {
		return zero, errs.Newf(errs.EInvalid, "invalid %s attributes: %v", r.name, err)
	}
	meta := next.Meta()
	*meta = *current.Meta()
	meta.UpdatedAt = r.now().UTC()
	if !meta.UpdatedAt.After(meta.CreatedAt) {
		meta.UpdatedAt = meta.CreatedAt.Add(time.Nanosecond)
	}

	if err := validate(next); err != nil {
		return zero, err
	}
	rec, err := r.record(next)
	if err != nil {
		return zero, errs.Wrap(err, errs.EInternal, op)
	}
	if err := r.docs.Replace(ctx, r.collection, rec); err != nil {
		return zero, r.translate(err, op)
	}
	return r.shape(ctx, next, nil, op)
}

// Delete removes a document according to the repository's policy. Soft
// deleting a document twice succeeds; hard deleting it twice is NotFound.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	const op = "store.Delete"

	if r.policy == HardDelete {
		if err := r.docs.Remove(ctx, r.collection, id); err != nil {
			return r.translate(err, op)
		}
		return nil
	}

	doc, err := r.load(ctx, id, op)
	if err != nil {
		return err
	}
	meta := doc.Meta()
	if meta.Removed() {
		return nil
	}
	now := r.now().UTC()
	meta.DeletedAt = &now

	rec, err := r.record(doc)
	if err != nil {
		return errs.Wrap(err, errs.EInternal, op)
	}
	if err := r.docs.Replace(ctx, r.collection, rec); err != nil {
		return r.translate(err, op)
	}
	return nil
}

func (r *Repository[T]) load(ctx context.Context, id, op string) (T, error) {
	var zero T
	body, err := r.docs.Get(ctx, r.collection, id)
	if err != nil {
		return zero, r.translate(err, op)
	}
	doc, err := r.decode(body)
	if err != nil {
		return zero, errs.Wrap(err, errs.EInternal, op)
	}
	return doc, nil
}

func (r *Repository[T]) decode(body []byte) (T, error) {
	doc := r.newDoc()
	if err := json.Unmarshal(body, doc); err != nil {
		var zero T
		return zero, err
	}
	return doc, nil
}

// shape prunes stale list references and populates spec.
func (r *Repository[T]) shape(ctx context.Context, doc T, spec Paths, op string) (T, error) {
	if err := r.populator.resolve(ctx, doc, spec); err != nil {
		var zero T
		return zero, r.translate(err, op)
	}
	return doc, nil
}

func (r *Repository[T]) record(doc T) (Record, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return Record{}, err
	}
	meta := doc.Meta()
	rec := Record{
		ID:        meta.ID,
		Body:      body,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
		DeletedAt: meta.DeletedAt,
	}
	if owned, ok := any(doc).(model.Owned); ok {
		rec.Owner = owned.Owner()
	}
	if keyed, ok := any(doc).(model.Keyed); ok {
		rec.Key = keyed.Key()
	}
	return rec, nil
}

func (r *Repository[T]) translate(err error, op string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errs.Newf(errs.ENotFound, "%s not found", r.name)
	case errors.Is(err, ErrDuplicate):
		return errs.New(errs.EConflict, r.conflict)
	default:
		return errs.Wrap(err, errs.EInternal, op)
	}
}

func validate(doc model.Document) error {
	if v, ok := doc.(model.Validator); ok {
		return v.Validate()
	}
	return nil
}
