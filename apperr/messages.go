package apperr

var (
	ErrMissingReceiver   = Validation("receiver", "receiver is required")
	ErrMissingBody       = Validation("message", "message is required")
	ErrSelfMessage       = Validation("receiver", "you cannot message yourself")
	ErrOwnListing        = Validation("listing", "you cannot contact yourself about your own listing")
	ErrUnknownListing    = Validation("listing", "unknown listing type")
	ErrUserNotFound      = NotFound("user not found")
	ErrMessageNotFound   = NotFound("message not found")
	ErrListingNotFound   = NotFound("listing not found")
	ErrInvalidCredential = Unauthenticated("invalid credentials")
	ErrUserExists        = AlreadyExists("user already exists")
)
