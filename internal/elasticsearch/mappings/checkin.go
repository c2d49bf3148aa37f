package mappings

// GetCheckinMapping returns the mapping for the checkin index. Older dataset releases
// carry checkin_info; newer ones a comma-separated date string.
func GetCheckinMapping(shards, replicas int) map[string]any {
	return newIndexBody(shards, replicas, map[string]any{
		"business_id":  field(TypeKeyword),
		"checkin_info": field(TypeObject),
		"date":         field(TypeText),
	})
}
