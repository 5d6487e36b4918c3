package contacts

import (
	"time"
)

// RecordRow is one stored record of any family in the 'records' table.
// Flag categories live in Flags; everything else is kept as JSON in Data.
type RecordRow struct {
	ID        uint                `gorm:"column:id;primaryKey"`
	UID       string              `gorm:"column:uid;size:64;uniqueIndex"`
	Family    string              `gorm:"column:family;size:32;index"`
	LookupKey string              `gorm:"column:lookup_key;size:255;index"`
	Flags     int64               `gorm:"column:flags"`
	Data      map[string]any      `gorm:"column:data;serializer:json"`
	Slots     map[string][]string `gorm:"column:slots;serializer:json"` // storage slot per list item, aligned with Data
	UpdatedAt time.Time           `gorm:"column:updated_at"`
}

// TableName overrides the table name.
func (RecordRow) TableName() string {
	return "records"
}

// recordColumns are the columns Prepare expects after migration.
var recordColumns = []string{"id", "uid", "family", "lookup_key", "flags", "data", "slots", "updated_at"}
