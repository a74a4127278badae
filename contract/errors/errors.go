package errors

// Error codes for the message center contracts. Keep stable; used across adapters and components.
const (
	ErrCodeActionExists        = "messagecenter.action_exists"
	ErrCodeActionInvalid       = "messagecenter.action_invalid"
	ErrCodeUnknownAction       = "messagecenter.unknown_action"
	ErrCodeRelayFailed         = "messagecenter.relay_failed"
	ErrCodeRelayNotConfigured  = "messagecenter.relay_not_configured"
	ErrCodeSubscribeFailed     = "messagecenter.subscribe_failed"
	ErrCodeSerializationFailed = "messagecenter.serialization_failed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrActionExists        = Code(ErrCodeActionExists)
	ErrActionInvalid       = Code(ErrCodeActionInvalid)
	ErrUnknownAction       = Code(ErrCodeUnknownAction)
	ErrRelayFailed         = Code(ErrCodeRelayFailed)
	ErrRelayNotConfigured  = Code(ErrCodeRelayNotConfigured)
	ErrSubscribeFailed     = Code(ErrCodeSubscribeFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
)
