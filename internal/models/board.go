package models

import (
	"time"

	"gorm.io/gorm"
)

type BoardVisibility string

const (
	VisibilityPrivate BoardVisibility = "private"
	VisibilityPublic  BoardVisibility = "public"
)

// IsValid returns true if the visibility is a known value.
func (v BoardVisibility) IsValid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

type Board struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	Visibility  BoardVisibility `gorm:"type:varchar(20);not null;default:'private'" json:"visibility"`
	InviteCode  string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Members []BoardMember `gorm:"foreignKey:BoardID" json:"members,omitempty"`
	Columns []Column      `gorm:"foreignKey:BoardID" json:"columns,omitempty"`
}
