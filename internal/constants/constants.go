package constants

// Context keys shared between middleware and handlers
const (
	ContextKeyUserID      = "user_id"
	ContextKeyBoard       = "board"
	ContextKeyBoardMember = "board_member"
	ContextKeyTask        = "task"
)

// Session configuration
const (
	SessionCookieName = "board_session"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxTitleLength    = 255
)

// Pagination defaults
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
