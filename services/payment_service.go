package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"visa-management-api/models"

	"github.com/google/uuid"
)

const (
	// Open orders older than this hold the open-order slot hostage and are
	// cancelled in place when a fresh order is requested.
	defaultOrderTTL = 30 * time.Minute

	gatewayAttempts = 3
	gatewayBackoff  = 500 * time.Millisecond
)

// OrderDescriptor is what the browser needs to open the payment interface
// for one order.
type OrderDescriptor struct {
	OrderReference string `json:"order_reference"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
	KeyID          string `json:"key_id"`
}

// ConfirmResult reports the outcome of a completion report.
type ConfirmResult struct {
	Order             *models.PaymentOrder `json:"order"`
	ApplicationStatus string               `json:"application_status"`
}

// PaymentService coordinates payment orders between the store and the
// gateway. It is the only writer of order state and the only path by which
// a payable application becomes approved.
type PaymentService struct {
	store    Store
	gateway  PaymentGateway
	notifier *NotificationService
	orderTTL time.Duration
	attempts int
	backoff  time.Duration
}

// NewPaymentService constructs a PaymentService. Nil collaborators fall back
// to the GORM store and the env-configured gateway client.
func NewPaymentService(store Store, gateway PaymentGateway, notifier *NotificationService) *PaymentService {
	if store == nil {
		store = NewGormStore(nil)
	}
	if gateway == nil {
		gateway = NewGatewayClient(nil)
	}
	return &PaymentService{
		store:    store,
		gateway:  gateway,
		notifier: notifier,
		orderTTL: defaultOrderTTL,
		attempts: gatewayAttempts,
		backoff:  gatewayBackoff,
	}
}

// CreateOrderFor is CreateOrder scoped to the acting customer: an
// application owned by someone else is reported as not found, matching how
// customer queries are scoped elsewhere.
func (p *PaymentService) CreateOrderFor(ctx context.Context, applicationID int, actor Actor) (*OrderDescriptor, error) {
	app, err := p.store.LoadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if actor.IsCustomer() && app.UserID != actor.UserID {
		return nil, ErrNotFound
	}
	return p.CreateOrder(ctx, applicationID)
}

// CreateOrder turns a payable application into an order the client can
// present to the gateway. Idempotent by application id: if an open order
// already exists its descriptor is returned alongside ErrOrderAlreadyOpen.
// The order is persisted in created state before the descriptor is handed
// back, so a crash after persistence never leaves an order the system does
// not know about. A remote order orphaned between gateway creation and the
// local insert is harmless; the gateway expires unpaid orders on its own.
func (p *PaymentService) CreateOrder(ctx context.Context, applicationID int) (*OrderDescriptor, error) {
	app, err := p.store.LoadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.StatusUnderReview {
		return nil, ErrInvalidTransition
	}

	visaType, err := p.store.LoadVisaType(ctx, app.VisaTypeID)
	if err != nil {
		return nil, err
	}
	if !visaType.RequiresPayment() {
		return nil, ErrNotPayable
	}

	if existing, err := p.store.LoadOpenOrder(ctx, applicationID); err == nil {
		if p.reclaimable(existing) {
			reason := "expired"
			cancelErr := p.store.UpdateOrderState(ctx, existing.OrderReference,
				[]string{models.OrderCreated}, models.OrderCancelled,
				map[string]interface{}{"cancel_reason": &reason})
			if cancelErr != nil && !errors.Is(cancelErr, ErrPersistenceConflict) {
				return nil, cancelErr
			}
		} else {
			return p.descriptor(existing), ErrOrderAlreadyOpen
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	receipt := uuid.NewString()
	remote, err := p.createRemoteOrder(ctx, visaType.FeeAmount, visaType.Currency, receipt, map[string]string{
		"application_number": app.ApplicationNumber,
	})
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		OrderReference: remote.Reference,
		ApplicationID:  applicationID,
		Amount:         visaType.FeeAmount,
		Currency:       visaType.Currency,
		State:          models.OrderCreated,
		Receipt:        receipt,
		CreateAt:       time.Now(),
	}

	if err := p.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, ErrOrderAlreadyOpen) {
			// Lost the race. Return the winner's order; ours is an orphan
			// the gateway will expire.
			if existing, loadErr := p.store.LoadOpenOrder(ctx, applicationID); loadErr == nil {
				return p.descriptor(existing), ErrOrderAlreadyOpen
			}
		}
		return nil, err
	}

	return p.descriptor(order), nil
}

// ConfirmOrder reconciles a client-reported completion into a verified state
// change. The client report is only a hint: the signature must check out and
// the gateway's own payment record must match this order before anything
// moves. Idempotent for already-confirmed orders.
func (p *PaymentService) ConfirmOrder(ctx context.Context, orderReference, paymentReference, signature string) (*ConfirmResult, error) {
	order, err := p.store.LoadOrder(ctx, orderReference)
	if err != nil {
		return nil, err
	}

	if order.State == models.OrderConfirmed {
		return p.confirmedResult(ctx, order)
	}
	if !order.IsOpen() {
		return nil, ErrInvalidTransition
	}

	if order.State == models.OrderCreated {
		err := p.store.UpdateOrderState(ctx, orderReference,
			[]string{models.OrderCreated}, models.OrderAwaitingConfirmation, nil)
		if err != nil && !errors.Is(err, ErrPersistenceConflict) {
			return nil, err
		}
	}

	if !p.gateway.VerifySignature(orderReference, paymentReference, signature) {
		p.markFailed(ctx, orderReference, paymentReference)
		return nil, ErrPaymentVerificationFailed
	}

	payment, err := p.gateway.FetchPayment(ctx, paymentReference)
	if err != nil {
		// Ambiguous: the money may or may not have moved. Leave the order
		// awaiting confirmation and let the client retry the report.
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if payment.OrderReference != orderReference || payment.Amount != order.Amount || !payment.Captured() {
		p.markFailed(ctx, orderReference, paymentReference)
		return nil, ErrPaymentVerificationFailed
	}

	if err := p.store.ConfirmOrderAndApprove(ctx, orderReference, order.ApplicationID, paymentReference); err != nil {
		if errors.Is(err, ErrPersistenceConflict) {
			// A concurrent confirm may have won; re-read before giving up.
			if current, loadErr := p.store.LoadOrder(ctx, orderReference); loadErr == nil && current.State == models.OrderConfirmed {
				return p.confirmedResult(ctx, current)
			}
		}
		return nil, err
	}

	confirmed, err := p.store.LoadOrder(ctx, orderReference)
	if err != nil {
		return nil, err
	}

	if app, err := p.store.LoadApplication(persistentContext(ctx), order.ApplicationID); err == nil {
		p.notifier.Notify(app.UserID, app.ApplicationID, "success",
			"Visa application approved",
			fmt.Sprintf("Payment for application %s was confirmed and the application is approved.", app.ApplicationNumber))
	}

	return &ConfirmResult{Order: confirmed, ApplicationStatus: models.StatusApproved}, nil
}

// CancelOrder releases the open-order slot when the client abandons the
// payment interface. The application status is untouched. Cancelling an
// already-cancelled order is a no-op.
func (p *PaymentService) CancelOrder(ctx context.Context, orderReference, reason string) error {
	order, err := p.store.LoadOrder(ctx, orderReference)
	if err != nil {
		return err
	}
	if order.State == models.OrderCancelled {
		return nil
	}
	if !order.IsOpen() {
		return ErrInvalidTransition
	}

	err = p.store.UpdateOrderState(ctx, orderReference, openOrderStates, models.OrderCancelled,
		map[string]interface{}{"cancel_reason": &reason})
	if errors.Is(err, ErrPersistenceConflict) {
		if current, loadErr := p.store.LoadOrder(ctx, orderReference); loadErr == nil && current.State == models.OrderCancelled {
			return nil
		}
	}
	return err
}

// ExpireStaleOrders cancels created-state orders older than the TTL so an
// abandoned session cannot hold the open-order slot forever. Orders awaiting
// confirmation are left alone, like reclaimable's check on create: a payment
// may be in flight.
func (p *PaymentService) ExpireStaleOrders(ctx context.Context) (int64, error) {
	return p.store.ExpireOrdersBefore(ctx, time.Now().Add(-p.orderTTL))
}

// HasConfirmedOrder reports whether the application's fee has already been
// collected.
func (p *PaymentService) HasConfirmedOrder(ctx context.Context, applicationID int) (bool, error) {
	_, err := p.store.LoadConfirmedOrder(ctx, applicationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *PaymentService) createRemoteOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*RemoteOrder, error) {
	var lastErr error
	backoff := p.backoff
	for attempt := 0; attempt < p.attempts; attempt++ {
		remote, err := p.gateway.CreateRemoteOrder(ctx, amount, currency, receipt, notes)
		if err == nil {
			return remote, nil
		}
		lastErr = err
		if errors.Is(err, ErrGatewayNotConfigured) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, lastErr)
}

// reclaimable reports whether a stale created order may be cancelled in
// place. Orders already awaiting confirmation are left alone: a payment may
// be in flight.
func (p *PaymentService) reclaimable(order *models.PaymentOrder) bool {
	return order.State == models.OrderCreated && time.Since(order.CreateAt) > p.orderTTL
}

func (p *PaymentService) descriptor(order *models.PaymentOrder) *OrderDescriptor {
	return &OrderDescriptor{
		OrderReference: order.OrderReference,
		Amount:         order.Amount,
		Currency:       order.Currency,
		Receipt:        order.Receipt,
		KeyID:          p.gateway.ClientKey(),
	}
}

func (p *PaymentService) confirmedResult(ctx context.Context, order *models.PaymentOrder) (*ConfirmResult, error) {
	status := models.StatusApproved
	if app, err := p.store.LoadApplication(ctx, order.ApplicationID); err == nil {
		status = app.Status
	}
	return &ConfirmResult{Order: order, ApplicationStatus: status}, nil
}

func (p *PaymentService) markFailed(ctx context.Context, orderReference, paymentReference string) {
	err := p.store.UpdateOrderState(ctx, orderReference, openOrderStates, models.OrderFailed,
		map[string]interface{}{"payment_reference": &paymentReference})
	if err != nil && !errors.Is(err, ErrPersistenceConflict) {
		log.Printf("Warning: failed to mark order %s as failed: %v", orderReference, err)
	}
}
