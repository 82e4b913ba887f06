package gamedto

// Stable error codes surfaced to clients. Handlers switch on Code, so these
// strings are part of the wire contract.
const (
	// admission
	CodeRoomNotFound            = "RoomNotFound"
	CodeRoomFull                = "RoomFull"
	CodeAlreadyStarted          = "AlreadyStarted"
	CodeAlreadyInGame           = "AlreadyInGame"
	CodeSelfPlay                = "SelfPlay"
	CodeStakeVerificationFailed = "StakeVerificationFailed"

	// moves
	CodeNotParticipant    = "NotParticipant"
	CodeNotYourTurn       = "NotYourTurn"
	CodeIllegalMove       = "IllegalMove"
	CodeInvalidMoveFormat = "InvalidMoveFormat"
	CodeGameOver          = "GameOver"

	// reconnect
	CodeNoActiveSession    = "NoActiveSession"
	CodeRoomNoLongerExists = "RoomNoLongerExists"
	CodeSignatureMismatch  = "SignatureMismatch"
	CodeInvalidSignature   = "InvalidSignature"

	// rate limiting
	CodeTooManyRequests = "TooManyRequests"

	// usernames
	CodeAlreadyRegistered = "AlreadyRegistered"
	CodeInvalidFormat     = "InvalidFormat"
	CodeTaken             = "Taken"

	// catch-all for malformed payloads
	CodeInvalidRequest = "InvalidRequest"
)

type DomainError struct {
	Code    string
	Message string
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "game error"
}

// Err builds a DomainError carrying only a code.
func Err(code string) DomainError { return DomainError{Code: code} }

// CodeOf extracts the stable code from an error, falling back to the raw
// error text for unexpected failures.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := err.(DomainError); ok {
		return de.Code
	}
	return err.Error()
}
