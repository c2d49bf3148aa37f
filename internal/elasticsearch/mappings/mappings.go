// Package mappings defines the index settings and field mappings for each Yelp entity.
package mappings

// Field type names used across the entity mappings.
const (
	TypeKeyword = "keyword"
	TypeText    = "text"
	TypeFloat   = "float"
	TypeInteger = "integer"
	TypeDate    = "date"
	TypeObject  = "object"
	TypeBoolean = "boolean"
)

// YelpDateFormat is the timestamp layout used by user and tip records.
const YelpDateFormat = "yyyy-MM-dd HH:mm:ss"

// newIndexBody wraps properties in the settings and mappings envelope accepted by the
// create index API.
func newIndexBody(shards, replicas int, properties map[string]any) map[string]any {
	if shards < 1 {
		shards = 1
	}
	if replicas < 0 {
		replicas = 0
	}
	return map[string]any{
		"settings": map[string]any{
			"number_of_shards":   shards,
			"number_of_replicas": replicas,
		},
		"mappings": map[string]any{
			"properties": properties,
		},
	}
}

func field(fieldType string) map[string]any {
	return map[string]any{"type": fieldType}
}

func dateField(format string) map[string]any {
	return map[string]any{"type": TypeDate, "format": format}
}

// textWithKeyword maps a text field with an exact-match .keyword sub-field.
func textWithKeyword() map[string]any {
	return map[string]any{
		"type": TypeText,
		"fields": map[string]any{
			"keyword": map[string]any{"type": TypeKeyword, "ignore_above": 256},
		},
	}
}
