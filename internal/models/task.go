package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// IsValid returns true if the priority is a known value.
func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task is a unit of work inside a column. Position is its zero-based index in
// the column's task list; the ordering engine keeps positions gapless. Status
// mirrors the title of the task's current column and is rewritten on every
// move; column membership via ColumnID stays authoritative.
type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	BoardID     uint64         `gorm:"not null;index" json:"board_id"`
	ColumnID    uint64         `gorm:"not null;index" json:"column_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    TaskPriority   `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Status      string         `gorm:"type:varchar(255)" json:"status"`
	Position    int            `gorm:"not null" json:"position"`
	DueDate     *time.Time     `json:"due_date"`
	AssigneeID  *uint64        `json:"assignee_id"`
	CreatorID   uint64         `gorm:"not null" json:"creator_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator      User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignee     *User            `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Dependencies []TaskDependency `gorm:"foreignKey:TaskID" json:"dependencies,omitempty"`
	Comments     []Comment        `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
