package services

import (
	"context"
	"errors"
	"fmt"

	"visa-management-api/models"
)

// Decision outcomes. AwaitingPayment is deliberately distinct from Approved
// so callers cannot mistake "reviewer clicked approve" for "application is
// approved": a payable application only becomes approved once its payment
// order is confirmed.
const (
	DecisionApproved          = "approved"
	DecisionAwaitingPayment   = "awaiting_payment"
	DecisionRejected          = "rejected"
	DecisionMoreInfoRequested = "more_info_requested"
)

// DecisionResult is the tagged outcome of a reviewer decision.
type DecisionResult struct {
	Outcome string           `json:"outcome"`
	Status  string           `json:"status"`
	Order   *OrderDescriptor `json:"order,omitempty"`
}

// ReviewService translates reviewer and customer workflow actions into
// state-machine transitions plus comment records. It and PaymentService are
// the only writers of application status.
type ReviewService struct {
	store    Store
	payments *PaymentService
	notifier *NotificationService
}

// NewReviewService constructs a ReviewService. Nil collaborators fall back
// to the GORM store and the default payment service.
func NewReviewService(store Store, payments *PaymentService, notifier *NotificationService) *ReviewService {
	if store == nil {
		store = NewGormStore(nil)
	}
	if payments == nil {
		payments = NewPaymentService(store, nil, notifier)
	}
	return &ReviewService{store: store, payments: payments, notifier: notifier}
}

// SubmitForReview moves a draft or resent application into under_review on
// behalf of its owning customer.
func (r *ReviewService) SubmitForReview(ctx context.Context, applicationID int, actor Actor, comment string) (*models.VisaApplication, error) {
	app, err := r.store.LoadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	action := SubmitAction(app.Status)
	next, err := Transition(app, action, actor)
	if err != nil {
		return nil, err
	}

	record := &models.ApplicationComment{
		UserID:  actor.UserID,
		Action:  action,
		Comment: comment,
	}
	if err := r.store.UpdateApplicationStatus(ctx, applicationID, app.Status, next, record); err != nil {
		return nil, err
	}

	return r.store.LoadApplication(ctx, applicationID)
}

// ReviewDecision applies an employee decision. Approve on a payable
// application without a confirmed order does not transition anything: the
// application stays under_review and the result carries the payment order
// the customer must complete first.
func (r *ReviewService) ReviewDecision(ctx context.Context, applicationID int, actor Actor, action, comment string) (*DecisionResult, error) {
	app, err := r.store.LoadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if action != ActionApprove && action != ActionReject && action != ActionRequestMoreInfo {
		return nil, ErrInvalidTransition
	}

	next, err := Transition(app, action, actor)
	if err != nil {
		return nil, err
	}

	if action == ActionApprove {
		result, done, err := r.approvePayable(ctx, app, actor, comment)
		if done || err != nil {
			return result, err
		}
	}

	record := &models.ApplicationComment{
		UserID:  actor.UserID,
		Action:  action,
		Comment: comment,
	}
	if err := r.store.UpdateApplicationStatus(ctx, applicationID, app.Status, next, record); err != nil {
		return nil, err
	}

	result := &DecisionResult{Status: next}
	switch action {
	case ActionApprove:
		result.Outcome = DecisionApproved
	case ActionReject:
		result.Outcome = DecisionRejected
	case ActionRequestMoreInfo:
		result.Outcome = DecisionMoreInfoRequested
	}

	r.notifyDecision(app, result)
	return result, nil
}

// approvePayable handles the fee gate on approve. Returns done=false when
// the application is approvable right now (no fee, or fee already
// collected), in which case the caller performs the ordinary transition.
func (r *ReviewService) approvePayable(ctx context.Context, app *models.VisaApplication, actor Actor, comment string) (*DecisionResult, bool, error) {
	visaType, err := r.store.LoadVisaType(ctx, app.VisaTypeID)
	if err != nil {
		return nil, true, err
	}
	if !visaType.RequiresPayment() {
		return nil, false, nil
	}

	confirmed, err := r.payments.HasConfirmedOrder(ctx, app.ApplicationID)
	if err != nil {
		return nil, true, err
	}
	if confirmed {
		return nil, false, nil
	}

	order, err := r.payments.CreateOrder(ctx, app.ApplicationID)
	if err != nil && !errors.Is(err, ErrOrderAlreadyOpen) {
		return nil, true, err
	}

	record := &models.ApplicationComment{
		UserID:  actor.UserID,
		Action:  ActionApprove,
		Comment: comment,
	}
	// Record the reviewer's approval without changing status: the
	// application stays under_review until the order is confirmed.
	if err := r.store.UpdateApplicationStatus(ctx, app.ApplicationID, app.Status, app.Status, record); err != nil {
		return nil, true, err
	}

	r.notifier.Notify(app.UserID, app.ApplicationID, "info",
		"Visa fee payment required",
		fmt.Sprintf("Application %s was approved pending payment of the visa fee.", app.ApplicationNumber))

	return &DecisionResult{
		Outcome: DecisionAwaitingPayment,
		Status:  models.StatusUnderReview,
		Order:   order,
	}, true, nil
}

func (r *ReviewService) notifyDecision(app *models.VisaApplication, result *DecisionResult) {
	var title, message, kind string
	switch result.Outcome {
	case DecisionApproved:
		kind, title = "success", "Visa application approved"
		message = fmt.Sprintf("Application %s has been approved.", app.ApplicationNumber)
	case DecisionRejected:
		kind, title = "error", "Visa application rejected"
		message = fmt.Sprintf("Application %s has been rejected.", app.ApplicationNumber)
	case DecisionMoreInfoRequested:
		kind, title = "warning", "More information requested"
		message = fmt.Sprintf("Application %s needs more information before review can continue.", app.ApplicationNumber)
	default:
		return
	}
	r.notifier.Notify(app.UserID, app.ApplicationID, kind, title, message)
}
