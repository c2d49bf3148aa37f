package mappings

import "fmt"

// Entity names accepted by the factory.
const (
	Business = "business"
	Review   = "review"
	User     = "user"
	Checkin  = "checkin"
	Tip      = "tip"
)

// GetMappingForType returns the index body for an entity type.
func GetMappingForType(entityType string, shards, replicas int) (map[string]any, error) {
	switch entityType {
	case Business:
		return GetBusinessMapping(shards, replicas), nil
	case Review:
		return GetReviewMapping(shards, replicas), nil
	case User:
		return GetUserMapping(shards, replicas), nil
	case Checkin:
		return GetCheckinMapping(shards, replicas), nil
	case Tip:
		return GetTipMapping(shards, replicas), nil
	default:
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}
}
