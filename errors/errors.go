package errors

import "fmt"

// Sentinel errors for the chat engine. Handlers map them to an error
// event (or HTTP status) for the requester only; none of them ever
// leaves partially applied state behind.
var (
	ErrValidation   = fmt.Errorf("validation failed")
	ErrNotFound     = fmt.Errorf("not found")
	ErrUnauthorized = fmt.Errorf("not allowed")
	ErrRoomFull     = fmt.Errorf("room already has two participants")
	ErrPersistence  = fmt.Errorf("persistence failure")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
