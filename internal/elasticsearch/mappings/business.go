package mappings

// GetBusinessMapping returns the mapping for the business index.
// business_id is a keyword so the review join can filter with a plain terms query.
func GetBusinessMapping(shards, replicas int) map[string]any {
	return newIndexBody(shards, replicas, map[string]any{
		"business_id":  field(TypeKeyword),
		"name":         field(TypeText),
		"address":      field(TypeText),
		"city":         textWithKeyword(),
		"state":        textWithKeyword(),
		"postal_code":  field(TypeKeyword),
		"latitude":     field(TypeFloat),
		"longitude":    field(TypeFloat),
		"stars":        field(TypeFloat),
		"review_count": field(TypeInteger),
		"is_open":      field(TypeInteger),
		"categories":   field(TypeText),
		"attributes":   field(TypeObject),
		"hours":        field(TypeObject),
	})
}
