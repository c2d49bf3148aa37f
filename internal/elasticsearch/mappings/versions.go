package mappings

// Mapping version constants.
// Bump major for breaking changes (field type changes, removals).
// Bump minor for additions.
const (
	BusinessMappingVersion = "1.1.0"
	ReviewMappingVersion   = "1.0.0"
	UserMappingVersion     = "1.0.0"
	CheckinMappingVersion  = "1.1.0"
	TipMappingVersion      = "1.0.0"
)

// GetMappingVersion returns the current mapping version for an entity type.
func GetMappingVersion(entityType string) string {
	switch entityType {
	case Business:
		return BusinessMappingVersion
	case Review:
		return ReviewMappingVersion
	case User:
		return UserMappingVersion
	case Checkin:
		return CheckinMappingVersion
	case Tip:
		return TipMappingVersion
	default:
		return "1.0.0"
	}
}
