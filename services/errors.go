package services

import "errors"

// Workflow and payment error taxonomy. Controllers map these onto HTTP
// statuses; nothing below this package ever surfaces a raw gorm or
// transport error to the API layer.
var (
	// ErrInvalidTransition means the requested action has no edge from the
	// application's current status, or the actor lacks the capability for
	// that edge.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotPayable is the no-fee fast path: the visa type charges nothing,
	// so the application is approvable without a payment order.
	ErrNotPayable = errors.New("application has no payable fee")

	// ErrOrderAlreadyOpen means another order for the same application is in
	// created/awaiting_confirmation. Callers receive the existing order
	// alongside this error.
	ErrOrderAlreadyOpen = errors.New("an open payment order already exists")

	// ErrGatewayUnavailable is transient: the payment gateway could not be
	// reached or is not configured.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrPaymentVerificationFailed means the client-reported completion did
	// not verify against the gateway. Never retried automatically.
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// ErrPersistenceConflict is a concurrent-write collision; retry the
	// operation from a fresh read.
	ErrPersistenceConflict = errors.New("concurrent update conflict")
)
