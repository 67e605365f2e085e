package model

import "time"

// KVEntry is one row of the key-value table backing persistence.
type KVEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
