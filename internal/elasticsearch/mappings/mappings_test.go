package mappings_test

import (
	"testing"

	"github.com/jonesrussell/yelp-search/internal/elasticsearch/mappings"
)

func propertiesOf(t *testing.T, mapping map[string]any) map[string]any {
	t.Helper()

	mappingsObj, ok := mapping["mappings"].(map[string]any)
	if !ok {
		t.Fatal("missing or invalid mappings")
	}
	properties, ok := mappingsObj["properties"].(map[string]any)
	if !ok {
		t.Fatal("missing or invalid properties")
	}
	return properties
}

func assertFieldType(t *testing.T, properties map[string]any, field, want string) {
	t.Helper()

	def, ok := properties[field].(map[string]any)
	if !ok {
		t.Errorf("field %q missing", field)
		return
	}
	if def["type"] != want {
		t.Errorf("field %q type = %v, want %q", field, def["type"], want)
	}
}

func assertFieldFormat(t *testing.T, properties map[string]any, field, want string) {
	t.Helper()

	def, ok := properties[field].(map[string]any)
	if !ok {
		t.Errorf("field %q missing", field)
		return
	}
	if def["format"] != want {
		t.Errorf("field %q format = %v, want %q", field, def["format"], want)
	}
}

// --- Factory ---

func TestGetMappingForType_ValidTypes(t *testing.T) {
	t.Parallel()

	types := []string{mappings.Business, mappings.Review, mappings.User, mappings.Checkin, mappings.Tip}

	for _, entityType := range types {
		entityType := entityType
		t.Run(entityType, func(t *testing.T) {
			t.Parallel()

			mapping, err := mappings.GetMappingForType(entityType, 2, 0)
			if err != nil {
				t.Fatalf("GetMappingForType(%q) error = %v", entityType, err)
			}

			settings, ok := mapping["settings"].(map[string]any)
			if !ok {
				t.Fatalf("GetMappingForType(%q) missing 'settings' key", entityType)
			}
			if settings["number_of_shards"] != 2 {
				t.Errorf("number_of_shards = %v, want 2", settings["number_of_shards"])
			}
			if settings["number_of_replicas"] != 0 {
				t.Errorf("number_of_replicas = %v, want 0", settings["number_of_replicas"])
			}
			if len(propertiesOf(t, mapping)) == 0 {
				t.Errorf("GetMappingForType(%q) has no properties", entityType)
			}
		})
	}
}

func TestGetMappingForType_UnknownType(t *testing.T) {
	t.Parallel()

	if _, err := mappings.GetMappingForType("photo", 1, 1); err == nil {
		t.Fatal("GetMappingForType(photo) = nil error, want error")
	}
}

func TestGetMappingVersion(t *testing.T) {
	t.Parallel()

	if got := mappings.GetMappingVersion(mappings.Business); got != mappings.BusinessMappingVersion {
		t.Errorf("GetMappingVersion(business) = %q, want %q", got, mappings.BusinessMappingVersion)
	}
	if got := mappings.GetMappingVersion("unknown"); got != "1.0.0" {
		t.Errorf("GetMappingVersion(unknown) = %q, want 1.0.0", got)
	}
}

// --- Entity mappings ---

func TestGetBusinessMapping_FieldTypes(t *testing.T) {
	t.Parallel()

	properties := propertiesOf(t, mappings.GetBusinessMapping(1, 1))

	assertFieldType(t, properties, "business_id", mappings.TypeKeyword)
	assertFieldType(t, properties, "postal_code", mappings.TypeKeyword)
	assertFieldType(t, properties, "name", mappings.TypeText)
	assertFieldType(t, properties, "review_count", mappings.TypeInteger)
	for _, f := range []string{"stars", "latitude", "longitude"} {
		assertFieldType(t, properties, f, mappings.TypeFloat)
	}

	for _, f := range []string{"city", "state"} {
		assertFieldType(t, properties, f, mappings.TypeText)
		fields, ok := properties[f].(map[string]any)["fields"].(map[string]any)
		if !ok {
			t.Errorf("field %q missing keyword sub-field", f)
			continue
		}
		if _, ok := fields["keyword"]; !ok {
			t.Errorf("field %q missing keyword sub-field", f)
		}
	}
}

func TestGetReviewMapping_FieldTypes(t *testing.T) {
	t.Parallel()

	properties := propertiesOf(t, mappings.GetReviewMapping(1, 1))

	assertFieldType(t, properties, "user_id", mappings.TypeKeyword)
	assertFieldType(t, properties, "business_id", mappings.TypeKeyword)
	assertFieldType(t, properties, "stars", mappings.TypeFloat)
	for _, f := range []string{"useful", "funny", "cool"} {
		assertFieldType(t, properties, f, mappings.TypeInteger)
	}
	assertFieldType(t, properties, "text", mappings.TypeText)
	assertFieldType(t, properties, "date", mappings.TypeText)
}

func TestGetUserMapping_FieldTypes(t *testing.T) {
	t.Parallel()

	properties := propertiesOf(t, mappings.GetUserMapping(1, 1))

	assertFieldType(t, properties, "yelping_since", mappings.TypeDate)
	assertFieldFormat(t, properties, "yelping_since", mappings.YelpDateFormat)
	assertFieldType(t, properties, "friends", mappings.TypeKeyword)
	assertFieldType(t, properties, "average_stars", mappings.TypeFloat)
	assertFieldType(t, properties, "fans", mappings.TypeInteger)
}

func TestGetCheckinAndTipMappings(t *testing.T) {
	t.Parallel()

	checkin := propertiesOf(t, mappings.GetCheckinMapping(1, 1))
	assertFieldType(t, checkin, "business_id", mappings.TypeKeyword)
	assertFieldType(t, checkin, "checkin_info", mappings.TypeObject)

	tip := propertiesOf(t, mappings.GetTipMapping(1, 1))
	assertFieldType(t, tip, "date", mappings.TypeDate)
	assertFieldFormat(t, tip, "date", mappings.YelpDateFormat)
	assertFieldType(t, tip, "likes", mappings.TypeInteger)
	assertFieldType(t, tip, "user_id", mappings.TypeKeyword)
}

func TestNewIndexBody_ClampsShards(t *testing.T) {
	t.Parallel()

	settings := mappings.GetTipMapping(0, -1)["settings"].(map[string]any)
	if settings["number_of_shards"] != 1 {
		t.Errorf("number_of_shards = %v, want 1", settings["number_of_shards"])
	}
	if settings["number_of_replicas"] != 0 {
		t.Errorf("number_of_replicas = %v, want 0", settings["number_of_replicas"])
	}
}
