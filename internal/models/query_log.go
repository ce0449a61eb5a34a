package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QueryLog records one executed approach query. The dataset itself is never
// persisted.
type QueryLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Source     string         `gorm:"type:varchar(20);not null;index"`
	Criteria   datatypes.JSON `gorm:"type:jsonb;not null"`
	Limit      int            `gorm:"not null;default:0"`
	Matched    int            `gorm:"not null"`
	DurationMs int64          `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
}
