package schema

import (
	"context"
	"fmt"

	"github.com/jonesrussell/yelp-search/internal/elasticsearch/mappings"
)

// IdentityMode selects how checkin and tip documents are keyed.
type IdentityMode string

const (
	// IdentityLegacy keys checkins and tips by business_id, so later records for the
	// same business overwrite earlier ones.
	IdentityLegacy IdentityMode = "legacy"
	// IdentityComposite keys tips by business_id, user_id and date.
	IdentityComposite IdentityMode = "composite"
)

const indexBaseName = "yelp-"

// Registry maps entity types to their storage definition. It is immutable once built.
type Registry struct {
	entities map[EntityType]Entity
	order    []EntityType
}

type registryOptions struct {
	prefix   string
	identity IdentityMode
	shards   int
	replicas int
}

// Option configures a Registry.
type Option func(*registryOptions)

// WithIndexPrefix prepends prefix to every index name.
func WithIndexPrefix(prefix string) Option {
	return func(o *registryOptions) { o.prefix = prefix }
}

// WithIdentity selects the checkin and tip identity mode.
func WithIdentity(mode IdentityMode) Option {
	return func(o *registryOptions) { o.identity = mode }
}

// WithShards sets the shard and replica counts used in index settings.
func WithShards(shards, replicas int) Option {
	return func(o *registryOptions) {
		o.shards = shards
		o.replicas = replicas
	}
}

// NewRegistry builds the registry for all five entity types.
func NewRegistry(opts ...Option) *Registry {
	o := registryOptions{identity: IdentityLegacy, shards: 1, replicas: 1}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Registry{
		entities: make(map[EntityType]Entity, len(AllEntityTypes())),
		order:    AllEntityTypes(),
	}

	for _, t := range r.order {
		// The factory covers every EntityType constant.
		mapping, _ := mappings.GetMappingForType(string(t), o.shards, o.replicas)
		e := Entity{
			Type:           t,
			Index:          o.prefix + indexBaseName + string(t),
			Mapping:        mapping,
			MappingVersion: mappings.GetMappingVersion(string(t)),
		}
		e.IDField, e.KeyFields = identityFor(t, o.identity)
		r.entities[t] = e
	}

	return r
}

func identityFor(t EntityType, mode IdentityMode) (string, []string) {
	switch t {
	case Business:
		return FieldBusinessID, nil
	case Review:
		return FieldReviewID, nil
	case User:
		return FieldUserID, nil
	case Tip:
		if mode == IdentityComposite {
			return "", []string{FieldBusinessID, FieldUserID, FieldDate}
		}
		return FieldBusinessID, nil
	default:
		return FieldBusinessID, nil
	}
}

// Lookup returns the definition for t.
func (r *Registry) Lookup(t EntityType) (Entity, error) {
	e, ok := r.entities[t]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %q", ErrUnknownEntity, t)
	}
	return e, nil
}

// Index returns the index name for t, or "" when t is unknown.
func (r *Registry) Index(t EntityType) string {
	return r.entities[t].Index
}

// Entities returns every entity in ingest order.
func (r *Registry) Entities() []Entity {
	out := make([]Entity, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.entities[t])
	}
	return out
}

// EnsureIndices creates each missing index with its mapping, in ingest order.
// Existing indices are left untouched. It returns the names of created indices.
func (r *Registry) EnsureIndices(ctx context.Context, creator IndexCreator) ([]string, error) {
	var created []string
	for _, e := range r.Entities() {
		ok, err := creator.EnsureIndex(ctx, e.Index, e.Mapping)
		if err != nil {
			return created, fmt.Errorf("ensure %s index: %w", e.Type, err)
		}
		if ok {
			created = append(created, e.Index)
		}
	}
	return created, nil
}
