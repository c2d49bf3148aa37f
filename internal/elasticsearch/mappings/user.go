package mappings

// GetUserMapping returns the mapping for the user index.
func GetUserMapping(shards, replicas int) map[string]any {
	return newIndexBody(shards, replicas, map[string]any{
		"user_id":       field(TypeKeyword),
		"name":          field(TypeText),
		"review_count":  field(TypeInteger),
		"yelping_since": dateField(YelpDateFormat),
		"friends":       field(TypeKeyword),
		"useful":        field(TypeInteger),
		"funny":         field(TypeInteger),
		"cool":          field(TypeInteger),
		"fans":          field(TypeInteger),
		"average_stars": field(TypeFloat),
	})
}
