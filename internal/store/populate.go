package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/casa/internal/model"
)

// Paths is a populate spec: the dotted reference paths whose targets are
// embedded in a response. A nil Paths populates nothing.
type Paths map[string]struct{}

// Populate builds a Paths from path names.
func Populate(paths ...string) Paths {
	p := make(Paths, len(paths))
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			p[path] = struct{}{}
		}
	}
	return p
}

// ParsePaths parses a comma separated populate query value. "none" yields an
// empty spec.
func ParsePaths(s string) Paths {
	if strings.TrimSpace(s) == "none" {
		return Paths{}
	}
	return Populate(strings.Split(s, ",")...)
}

func (p Paths) Has(path string) bool {
	_, ok := p[path]
	return ok
}

// maxDepth bounds how far nested populate paths are followed.
const maxDepth = 4

type populator struct {
	docs      *DocumentStore
	factories map[string]func() model.Document
}

func newPopulator(docs *DocumentStore) *populator {
	return &populator{docs: docs, factories: model.Factories()}
}

// resolve walks the references of doc. List references whose target is
// missing, soft deleted or private to another user are marked stale and
// pruned; references named in spec are replaced by their target.
func (p *populator) resolve(ctx context.Context, doc model.Document, spec Paths) error {
	r := &resolution{populator: p, owner: ownerOf(doc), bodies: make(map[string][]byte)}
	return r.walk(ctx, doc, spec, "", 0)
}

// resolution caches loaded bodies for the duration of one resolve call.
type resolution struct {
	*populator
	// owner of the resolved document; empty for global documents.
	owner  string
	bodies map[string][]byte
}

// foreign reports whether target belongs to a user other than the owner of
// the document being resolved.
func (r *resolution) foreign(target model.Document) bool {
	if r.owner == "" {
		return false
	}
	owner := ownerOf(target)
	return owner != "" && owner != r.owner
}

func ownerOf(doc model.Document) string {
	if owned, ok := doc.(model.Owned); ok {
		return owned.Owner()
	}
	return ""
}

func (r *resolution) walk(ctx context.Context, doc model.Document, spec Paths, prefix string, depth int) error {
	if depth > maxDepth {
		return nil
	}
	if linker, ok := doc.(model.Linker); ok {
		for _, link := range linker.Links() {
			if link.Ref == nil || link.Ref.IsZero() {
				continue
			}
			path := link.Path
			if prefix != "" {
				path = prefix + "." + link.Path
			}
			want := spec.Has(path)
			if !want && !link.List {
				continue
			}

			target, err := r.load(ctx, link.Collection, link.Ref.ID)
			if err != nil {
				return err
			}
			if target != nil && r.foreign(target) {
				target = nil
			}
			if link.List && (target == nil || target.Meta().Removed()) {
				link.Ref.MarkStale()
				continue
			}
			if target == nil || !want {
				continue
			}
			if err := r.walk(ctx, target, spec, path, depth+1); err != nil {
				return err
			}
			link.Ref.Populate(target)
		}
	}
	if pruner, ok := doc.(model.Pruner); ok {
		pruner.Prune()
	}
	return nil
}

// load returns a fresh decoded copy of the target, or nil when it does not
// exist.
func (r *resolution) load(ctx context.Context, collection, id string) (model.Document, error) {
	key := collection + "/" + id
	body, seen := r.bodies[key]
	if !seen {
		var err error
		body, err = r.docs.Get(ctx, collection, id)
		if errors.Is(err, ErrNotFound) {
			body = nil
		} else if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		r.bodies[key] = body
	}
	if body == nil {
		return nil, nil
	}

	factory, ok := r.factories[collection]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownCollection, collection)
	}
	doc := factory()
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return doc, nil
}
