package errs

// Sentinel errors shared by the command and query layers. Handlers switch on
// these to pick status codes; wrap causes with Mark to keep errors.Is working.
var (
	// Lesson errors
	ErrLessonNotFound    = New("lesson not found")
	ErrNotLessonOwner    = New("not lesson owner")
	ErrIllegalTransition = New("illegal lesson status transition")
	ErrLessonNotReady    = New("lesson not ready for processing")

	// Ledger errors
	ErrInsufficientCredits = New("insufficient credits")
	ErrLedgerInconsistent  = New("ledger balance inconsistency")

	// Payment errors
	ErrInvalidSignature = New("invalid webhook signature")
	ErrMalformedEvent   = New("malformed payment event")
	ErrUnknownPayer     = New("payment event references unknown user")

	// Validation errors
	ErrDomainValidation = New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = New("database operation failed")
)
