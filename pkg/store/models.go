package store

import (
	"time"

	"gorm.io/datatypes"
)

// KVModel is the GORM row for one persisted value.
type KVModel struct {
	Key       string         `gorm:"primaryKey"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time      `gorm:"not null"`
}

func (KVModel) TableName() string { return "kv_entries" }
