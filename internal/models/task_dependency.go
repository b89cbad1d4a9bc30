package models

import "time"

type DependencyType string

const (
	DependencyBlocks    DependencyType = "blocks"
	DependencyBlockedBy DependencyType = "blocked-by"
	DependencyRelatesTo DependencyType = "relates-to"
)

// IsValid returns true if the type is a known value.
func (t DependencyType) IsValid() bool {
	switch t {
	case DependencyBlocks, DependencyBlockedBy, DependencyRelatesTo:
		return true
	default:
		return false
	}
}

// Mirror returns the type stored on the target task's side of the edge.
// blocks and blocked-by are mandatory mirror pairs; relates-to mirrors itself.
func (t DependencyType) Mirror() DependencyType {
	switch t {
	case DependencyBlocks:
		return DependencyBlockedBy
	case DependencyBlockedBy:
		return DependencyBlocks
	default:
		return DependencyRelatesTo
	}
}

// TaskDependency is a typed directed edge from one task to another. At most
// one edge exists per ordered (TaskID, TargetTaskID) pair; every edge has a
// mirrored counterpart stored on the target task.
type TaskDependency struct {
	TaskID       uint64         `gorm:"primarykey" json:"task_id"`
	TargetTaskID uint64         `gorm:"primarykey" json:"target_task_id"`
	Type         DependencyType `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt    time.Time      `json:"created_at"`

	// Relations
	Target Task `gorm:"foreignKey:TargetTaskID" json:"target,omitempty"`
}
