package mappings

// GetTipMapping returns the mapping for the tip index.
func GetTipMapping(shards, replicas int) map[string]any {
	return newIndexBody(shards, replicas, map[string]any{
		"text":        field(TypeText),
		"date":        dateField(YelpDateFormat),
		"user_id":     field(TypeKeyword),
		"business_id": field(TypeKeyword),
		"likes":       field(TypeInteger),
	})
}
