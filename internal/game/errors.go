package game

import "fmt"

// Code identifies a business rule violation in a machine-readable way so the
// transport layer can map it without string matching.
type Code string

const (
	CodeSessionNotFound   Code = "SESSION_NOT_FOUND"
	CodeSessionNotOwned   Code = "SESSION_NOT_OWNED"
	CodeSessionNotActive  Code = "SESSION_NOT_ACTIVE"
	CodeSessionEnded      Code = "SESSION_ENDED"
	CodeUnknownCard       Code = "UNKNOWN_CARD"
	CodeCardNotInHand     Code = "CARD_NOT_IN_HAND"
	CodeWrongCardType     Code = "WRONG_CARD_TYPE"
	CodeInsufficientFunds Code = "INSUFFICIENT_RESOURCES"
	CodePolicyNotUnlocked Code = "POLICY_NOT_UNLOCKED"
	CodePolicyAlreadyUsed Code = "POLICY_ALREADY_USED_THIS_TURN"
	CodeInvalidAction     Code = "INVALID_ACTION"
	CodeConfigUnavailable Code = "CONFIG_UNAVAILABLE"
)

// Error is a rule violation surfaced to the client. Internal failures use
// plain wrapped errors instead.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
