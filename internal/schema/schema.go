// Package schema is the registry of Yelp entity types: the index each one is stored
// in, how a document id is derived from a source record, and the index mapping.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/yelp-search/internal/elasticsearch/mappings"
)

// EntityType names one of the five dataset record kinds.
type EntityType string

const (
	Business EntityType = mappings.Business
	Review   EntityType = mappings.Review
	User     EntityType = mappings.User
	Checkin  EntityType = mappings.Checkin
	Tip      EntityType = mappings.Tip
)

// ErrUnknownEntity is returned for entity types outside the registry.
var ErrUnknownEntity = errors.New("unknown entity type")

// AllEntityTypes returns every entity type in ingest order.
func AllEntityTypes() []EntityType {
	return []EntityType{Business, Review, User, Checkin, Tip}
}

// ParseEntityType converts a case-insensitive name to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllEntityTypes() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// Field names shared by several entities.
const (
	FieldBusinessID = "business_id"
	FieldReviewID   = "review_id"
	FieldUserID     = "user_id"
	FieldDate       = "date"
)

// keySeparator joins composite key parts.
const keySeparator = ":"

// Entity describes how one record kind is stored.
type Entity struct {
	Type  EntityType
	Index string
	// IDField holds the document id when KeyFields is empty.
	IDField string
	// KeyFields, when set, are joined with ":" to form the document id.
	KeyFields      []string
	Mapping        map[string]any
	MappingVersion string
}

// DocumentID extracts the document id from a record. It reports false when the
// identity field is absent, null or an empty string, in which case the cluster
// assigns an id.
func (e Entity) DocumentID(record map[string]json.RawMessage) (string, bool) {
	if len(e.KeyFields) == 0 {
		return scalarValue(record[e.IDField])
	}

	parts := make([]string, 0, len(e.KeyFields))
	for _, f := range e.KeyFields {
		v, ok := scalarValue(record[f])
		if !ok {
			return "", false
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, keySeparator), true
}

// scalarValue renders a JSON string, number or boolean as an id.
func scalarValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		return string(raw), true
	}
}

// IndexCreator creates an index unless it exists.
type IndexCreator interface {
	EnsureIndex(ctx context.Context, index string, mapping any) (bool, error)
}
