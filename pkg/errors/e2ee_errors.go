package errors

var (
	// Server-side domain errors, used in usecase/repository
	ErrInvalidDeviceID    = InvalidArg("device id must be a uuid")
	ErrInvalidPublicKey   = InvalidArg("public key must be 32 bytes")
	ErrInvalidUserID      = InvalidArg("invalid user id")
	ErrTooManyUsers       = InvalidArg("too many user ids in one lookup")
	ErrInvalidScope       = InvalidArg("invalid conversation scope")
	ErrInvalidSealedKey   = InvalidArg("invalid sealed key")
	ErrEmptyEnvelopeBatch = InvalidArg("envelope batch is empty")
	ErrEnvelopeNotFound   = NotFound("key envelope not found")
	ErrScopeAlreadyKeyed  = AlreadyExists("conversation scope already has a key")
	ErrDeviceIDTaken      = AlreadyExists("device id is registered to another user")
	ErrNotDeviceOwner     = Forbidden("writer device is not registered to the caller")
	ErrNotParticipant     = Forbidden("caller is not a participant of this conversation")
	ErrMessageNotFound    = NotFound("message not found")
	ErrInvalidMessage     = InvalidArg("message needs content or ciphertext with nonce")
	ErrInvalidToken       = Unauthorized("invalid or expired token")
	ErrMissingCredentials = Unauthorized("authorization header required")

	// Device-side protocol errors
	ErrStorage               = New(CodeUnavailable, "local storage unavailable")
	ErrDirectory             = New(CodeUnavailable, "device key directory lookup failed")
	ErrEnvelope              = New(CodeDataLoss, "key envelope could not be sealed or opened")
	ErrKeyUnavailable        = New(CodeUnavailable, "conversation key unavailable")
	ErrAuthenticationFailure = New(CodeDataLoss, "message authentication failed")
	ErrNoFileStorage         = FailedPrecondition("file storage not configured")
)

func StorageError(cause error) error {
	return Wrap(CodeUnavailable, "local storage unavailable", cause)
}

func DirectoryError(cause error) error {
	return Wrap(CodeUnavailable, "device key directory lookup failed", cause)
}

func EnvelopeError(cause error) error {
	return Wrap(CodeDataLoss, "key envelope could not be sealed or opened", cause)
}

func KeyUnavailable(cause error) error {
	return Wrap(CodeUnavailable, "conversation key unavailable", cause)
}

func AuthenticationFailure(cause error) error {
	return Wrap(CodeDataLoss, "message authentication failed", cause)
}
