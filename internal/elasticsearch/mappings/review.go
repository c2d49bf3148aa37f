package mappings

// GetReviewMapping returns the mapping for the review index.
// date stays text because source timestamps are not uniformly formatted.
func GetReviewMapping(shards, replicas int) map[string]any {
	return newIndexBody(shards, replicas, map[string]any{
		"review_id":   field(TypeKeyword),
		"user_id":     field(TypeKeyword),
		"business_id": field(TypeKeyword),
		"stars":       field(TypeFloat),
		"useful":      field(TypeInteger),
		"funny":       field(TypeInteger),
		"cool":        field(TypeInteger),
		"text":        field(TypeText),
		"date":        field(TypeText),
	})
}
