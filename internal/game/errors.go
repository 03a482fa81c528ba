package game

import (
	"errors"
	"fmt"
)

// Code is a stable error kind surfaced to the boundary layer, which
// maps it onto HTTP status codes and websocket action-error payloads.
// Codes are part of the wire contract; never rename one.
type Code string

const (
	CodeSessionNotFound   Code = "session_not_found"
	CodeSessionFull       Code = "session_full"
	CodeDuplicatePlayer   Code = "duplicate_player"
	CodeNotHost           Code = "not_host"
	CodeEmptyRoster       Code = "empty_roster"
	CodeNotActive         Code = "session_not_active"
	CodeAlreadyStarted    Code = "session_already_started"
	CodePlayerNotFound    Code = "player_not_in_session"
	CodeAbilityNotFound   Code = "ability_not_found"
	CodeItemNotFound      Code = "item_not_found"
	CodeZeroQuantity      Code = "quantity_is_zero"
	CodeInsufficientAP    Code = "insufficient_action_points"
	CodeOutOfBounds       Code = "out_of_bounds"
	CodeOnCooldown        Code = "ability_on_cooldown"
	CodeTargetNotFound    Code = "target_not_found"
	CodeInvalidConfig     Code = "invalid_configuration"
	CodeInvalidTransition Code = "invalid_transition"
)

// Error carries a stable code plus a human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the stable code from an error, or empty when the
// error did not originate in this package.
func CodeOf(err error) Code {
	var gameErr *Error
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return ""
}
