package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/events"
	"github.com/dukerupert/casa/internal/model"
	"github.com/dukerupert/casa/internal/store"
)

// Scope is how documents of a resource relate to users.
type Scope int

const (
	// Global documents are visible to every authenticated user.
	Global Scope = iota
	// Owned documents belong to one user.
	Owned
	// Shared documents belong to one user or, with no owner, to everyone.
	Shared
)

// Admins re-checks admin rights against the user store.
type Admins interface {
	RequireAdmin(ctx context.Context, userID string) (*model.User, error)
}

// Options configure a Resource.
type Options[T model.Document] struct {
	Entity   string
	Scope    Scope
	Populate store.Paths
	Uploads  bool
	MaxBytes int64
	// BeforeCreate adjusts a decoded document before it is validated.
	BeforeCreate func(ctx context.Context, doc T)
}

// Resource serves the CRUD routes of one collection.
type Resource[T model.Document] struct {
	repo     *store.Repository[T]
	admins   Admins
	notifier events.Notifier
	opts     Options[T]
	newDoc   func() T
	now      func() time.Time
}

func NewResource[T model.Document](repo *store.Repository[T], newDoc func() T, admins Admins, notifier events.Notifier, opts Options[T]) *Resource[T] {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	return &Resource[T]{
		repo:     repo,
		admins:   admins,
		notifier: notifier,
		opts:     opts,
		newDoc:   newDoc,
		now:      time.Now,
	}
}

// List returns the live documents the caller can see: all of them for a
// global resource, the caller's own otherwise, plus shared ones.
func (h *Resource[T]) List(r *http.Request) Result {
	f := store.Filter{}
	switch h.opts.Scope {
	case Owned:
		f.Owner = auth.UserID(r.Context())
	case Shared:
		f.Owner = auth.UserID(r.Context())
		f.IncludeShared = true
	}
	docs, err := h.repo.ReadAll(r.Context(), f, populateSpec(r, h.opts.Populate))
	if err != nil {
		return FailList(err)
	}
	return OK("", docs)
}

// ListByOwner returns the documents of the user in the ownerId path value.
func (h *Resource[T]) ListByOwner(r *http.Request) Result {
	owner := r.PathValue("ownerId")
	if err := h.actFor(r.Context(), owner); err != nil {
		return FailList(err)
	}
	docs, err := h.repo.ReadAll(r.Context(), store.Filter{Owner: owner}, populateSpec(r, h.opts.Populate))
	if err != nil {
		return FailList(err)
	}
	return OK("", docs)
}

func (h *Resource[T]) Get(r *http.Request) Result {
	doc, err := h.repo.ReadOne(r.Context(), r.PathValue("id"), populateSpec(r, h.opts.Populate))
	if err != nil {
		return Fail(err)
	}
	if err := h.canRead(r.Context(), doc); err != nil {
		return Fail(err)
	}
	return OK("", doc)
}

func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) Result {
	attrs, err := readAttributes(w, r, h.opts.MaxBytes, h.opts.Uploads)
	if err != nil {
		return Fail(err)
	}
	doc, err := h.create(r.Context(), attrs)
	if err != nil {
		return Fail(err)
	}
	return OK(h.repo.Name()+" created successfully", doc)
}

// create claims an owned document for the caller unless the body names an
// owner, and persists it.
func (h *Resource[T]) create(ctx context.Context, attrs Attributes) (T, error) {
	var zero T
	if h.opts.Scope != Global {
		if !attrs.Has("user") {
			attrs.Set("user", auth.UserID(ctx))
		}
		owner := attrs.String("user")
		if owner != "" || h.opts.Scope == Shared {
			if err := h.actFor(ctx, owner); err != nil {
				return zero, err
			}
		}
	}

	doc, err := bind(attrs, h.newDoc)
	if err != nil {
		return zero, err
	}
	if h.opts.BeforeCreate != nil {
		h.opts.BeforeCreate(ctx, doc)
	}
	doc, err = h.repo.Create(ctx, doc)
	if err != nil {
		return zero, err
	}
	h.notify(ctx, events.Created, doc)
	return doc, nil
}

func (h *Resource[T]) Update(w http.ResponseWriter, r *http.Request) Result {
	ctx := r.Context()
	id := r.PathValue("id")

	current, err := h.repo.Lookup(ctx, id)
	if err != nil {
		return Fail(err)
	}
	if err := h.canWrite(ctx, current); err != nil {
		return Fail(err)
	}

	attrs, err := readAttributes(w, r, h.opts.MaxBytes, h.opts.Uploads)
	if err != nil {
		return Fail(err)
	}
	if h.opts.Scope != Global && attrs.Has("user") {
		if attrs.String("user") != ownerOf(current) {
			if err := h.actFor(ctx, attrs.String("user")); err != nil {
				return Fail(err)
			}
		}
	}

	doc, err := h.repo.Update(ctx, id, attrs)
	if err != nil {
		return Fail(err)
	}
	h.notify(ctx, events.Updated, doc)
	return OK(h.repo.Name()+" updated successfully", doc)
}

func (h *Resource[T]) Delete(r *http.Request) Result {
	ctx := r.Context()
	id := r.PathValue("id")

	current, err := h.repo.Lookup(ctx, id)
	if err != nil {
		return Fail(err)
	}
	if err := h.canWrite(ctx, current); err != nil {
		return Fail(err)
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		return Fail(err)
	}
	h.notify(ctx, events.Deleted, current)
	return OK(h.repo.Name()+" deleted successfully", map[string]string{"id": id})
}

// actFor allows acting on behalf of owner: callers may always act for
// themselves, admins for anyone. An empty owner means the shared space.
func (h *Resource[T]) actFor(ctx context.Context, owner string) error {
	if owner != "" && owner == auth.UserID(ctx) {
		return nil
	}
	_, err := h.admins.RequireAdmin(ctx, auth.UserID(ctx))
	return err
}

func (h *Resource[T]) canRead(ctx context.Context, doc T) error {
	if h.opts.Scope == Global {
		return nil
	}
	owner := ownerOf(doc)
	if owner == "" && h.opts.Scope == Shared {
		return nil
	}
	return h.actFor(ctx, owner)
}

// canWrite is canRead except that shared documents need an admin.
func (h *Resource[T]) canWrite(ctx context.Context, doc T) error {
	if h.opts.Scope == Global {
		return nil
	}
	return h.actFor(ctx, ownerOf(doc))
}

func (h *Resource[T]) notify(ctx context.Context, action events.Action, doc T) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(ctx, events.Change{
		Entity: h.opts.Entity,
		Action: action,
		ID:     doc.Meta().ID,
		Owner:  ownerOf(doc),
		At:     h.now().UTC(),
	})
}

func ownerOf(doc model.Document) string {
	if owned, ok := doc.(model.Owned); ok {
		return owned.Owner()
	}
	return ""
}

// Routes returns the resource's routes under prefix.
func (h *Resource[T]) Routes(prefix string) []Route {
	routes := []Route{
		{Pattern: "GET " + prefix + "/{id}", Handle: adapt(h.Get)},
		{Pattern: "POST " + prefix, Handle: h.Create},
		{Pattern: "PUT " + prefix + "/{id}", Handle: h.Update},
		{Pattern: "DELETE " + prefix + "/{id}", Handle: adapt(h.Delete)},
		{Pattern: "GET " + prefix, Handle: adapt(h.List)},
	}
	if h.opts.Scope != Global {
		routes = append(routes, Route{Pattern: "GET " + prefix + "/user/{ownerId}", Handle: adapt(h.ListByOwner)})
	}
	return routes
}
