package models

import "time"

type BoardRole string

const (
	RoleAdmin  BoardRole = "admin"
	RoleEditor BoardRole = "editor"
	RoleViewer BoardRole = "viewer"
)

// roleRank orders roles by privilege. Higher rank implies every lower one.
var roleRank = map[BoardRole]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// AtLeast reports whether the role grants the privileges of required.
func (r BoardRole) AtLeast(required BoardRole) bool {
	return roleRank[r] >= roleRank[required]
}

type BoardMember struct {
	BoardID  uint64    `gorm:"primarykey" json:"board_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	Role     BoardRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Board Board `gorm:"foreignKey:BoardID" json:"board,omitempty"`
	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
