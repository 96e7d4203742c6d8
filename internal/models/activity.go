package models

import "gorm.io/datatypes"

// ActivityLog captures auditable events triggered by administrators and instructors.
type ActivityLog struct {
	Base
	ActorID    string            `gorm:"type:varchar(36);not null;index" json:"actor_id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null;index:idx_activity_entity" json:"entity_type"`
	EntityID   *string           `gorm:"type:varchar(36);index:idx_activity_entity" json:"entity_id"`
	Metadata   datatypes.JSONMap `json:"metadata"`
}
