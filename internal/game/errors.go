package game

import "errors"

// Command errors. Every one of them is raised before any state is touched,
// so a rejected command has no side effects.
var (
	ErrInvalidSession  = errors.New("unknown guid")
	ErrSessionMismatch = errors.New("guid does not belong to game_id")
	ErrUnknownGame     = errors.New("unknown game_id")
	ErrUnknownCard     = errors.New("unknown card_id")
	ErrNotFound        = errors.New("not found")
	ErrInvalidAction   = errors.New("invalid action")
	ErrInvalidGrid     = errors.New("invalid grid")
	ErrInvalidRule     = errors.New("invalid rule descriptor")
)
