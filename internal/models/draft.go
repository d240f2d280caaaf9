package models

import "time"

// Draft is a post the user started but has not published. Drafts live only in
// the device-local store and are never synced to the data service.
type Draft struct {
	DraftID  string   `gorm:"primaryKey;size:36" json:"draft_id"`
	Title    string   `json:"title"`
	Content  string   `gorm:"type:text" json:"content"`
	Category Category `gorm:"size:32" json:"category"`

	ItemType ItemType `gorm:"size:8" json:"item_type,omitempty"`
	Location string   `json:"location,omitempty"`

	EventDate     string `json:"event_date,omitempty"`
	EventTime     string `json:"event_time,omitempty"`
	EventLocation string `json:"event_location,omitempty"`

	// MediaPath points at a local file, not an uploaded object.
	MediaPath string `json:"media_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Draft) TableName() string {
	return "drafts"
}
