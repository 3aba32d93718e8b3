package services

import (
	"context"
	"errors"
	"time"

	"visa-management-api/models"
)

// ErrNotFound is returned by store lookups when the row does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence boundary for the workflow core. Status and order
// updates are compare-and-set against the persisted state, so two concurrent
// writers cannot both win; implementations must make CreateOrder's
// check-and-create and ConfirmOrderAndApprove's double update atomic.
type Store interface {
	LoadApplication(ctx context.Context, id int) (*models.VisaApplication, error)
	LoadVisaType(ctx context.Context, id int) (*models.VisaType, error)

	// UpdateApplicationStatus moves the application from `from` to `to` and
	// appends the comment in one transaction. Returns ErrPersistenceConflict
	// if the application is no longer in `from`.
	UpdateApplicationStatus(ctx context.Context, id int, from, to string, comment *models.ApplicationComment) error

	LoadOrder(ctx context.Context, reference string) (*models.PaymentOrder, error)
	LoadOpenOrder(ctx context.Context, applicationID int) (*models.PaymentOrder, error)
	LoadConfirmedOrder(ctx context.Context, applicationID int) (*models.PaymentOrder, error)

	// CreateOrder persists a new order in created state. Returns
	// ErrOrderAlreadyOpen if the application's open-order slot is taken; the
	// check and the insert are atomic.
	CreateOrder(ctx context.Context, order *models.PaymentOrder) error

	// UpdateOrderState moves the order from any of `from` to `to`, applying
	// extra column updates. Returns ErrPersistenceConflict if the order is
	// in none of `from`.
	UpdateOrderState(ctx context.Context, reference string, from []string, to string, updates map[string]interface{}) error

	// ConfirmOrderAndApprove marks the order confirmed and the application
	// approved in a single transaction: both succeed or neither does.
	ConfirmOrderAndApprove(ctx context.Context, reference string, applicationID int, paymentReference string) error

	// ExpireOrdersBefore cancels created-state orders older than the cutoff
	// and returns how many were released. Orders awaiting confirmation are
	// never swept: a payment may be in flight.
	ExpireOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
