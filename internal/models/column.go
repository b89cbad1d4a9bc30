package models

import "time"

// Column is an ordered bucket of tasks within a board. Position defines the
// left-to-right display order; no two non-archived columns on a board share one.
type Column struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	BoardID    uint64    `gorm:"not null;index" json:"board_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	Position   int       `gorm:"not null" json:"position"`
	IsArchived bool      `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relations
	Tasks []Task `gorm:"foreignKey:ColumnID" json:"tasks,omitempty"`
}
