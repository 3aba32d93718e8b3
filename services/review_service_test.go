package services

import (
	"context"
	"errors"
	"testing"

	"visa-management-api/models"
)

func newTestReviewService(store *memStore, gateway *fakeGateway) (*ReviewService, *PaymentService) {
	payments := newTestPaymentService(store, gateway)
	return NewReviewService(store, payments, nil), payments
}

func TestSubmitForReviewFromDraft(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(0, "INR")
	appID := store.addApplication(7, visaType, models.StatusDraft)

	svc, _ := newTestReviewService(store, newFakeGateway())
	app, err := svc.SubmitForReview(context.Background(), appID, Actor{UserID: 7, RoleID: models.RoleCustomer}, "please review")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != models.StatusUnderReview {
		t.Fatalf("expected under_review, got %q", app.Status)
	}

	comments := store.commentsFor(appID)
	if len(comments) != 1 || comments[0].Action != ActionSubmit {
		t.Fatalf("expected one submit comment, got %+v", comments)
	}
}

func TestSubmitForReviewRejectsEmployee(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(0, "INR")
	appID := store.addApplication(7, visaType, models.StatusDraft)

	svc, _ := newTestReviewService(store, newFakeGateway())
	_, err := svc.SubmitForReview(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if store.appStatus(appID) != models.StatusDraft {
		t.Fatal("status must be unchanged")
	}
}

func TestReviewDecisionRejectsCustomer(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(0, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	svc, _ := newTestReviewService(store, newFakeGateway())
	_, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 7, RoleID: models.RoleCustomer}, ActionApprove, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApproveWithoutFeeIsImmediate(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(0, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	svc, _ := newTestReviewService(store, newFakeGateway())
	result, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionApprove, "all good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != DecisionApproved {
		t.Fatalf("expected approved outcome, got %q", result.Outcome)
	}
	if result.Status != models.StatusApproved {
		t.Fatalf("expected approved status, got %q", result.Status)
	}
	if store.appStatus(appID) != models.StatusApproved {
		t.Fatal("application not approved in store")
	}
	if len(store.ordersFor(appID)) != 0 {
		t.Fatal("no payment order may exist for a zero-fee approval")
	}
}

func TestApproveWithFeeAwaitsPayment(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(5000, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	gateway := newFakeGateway()
	svc, payments := newTestReviewService(store, gateway)

	result, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionApprove, "approved pending fee")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != DecisionAwaitingPayment {
		t.Fatalf("expected awaiting_payment outcome, got %q", result.Outcome)
	}
	if result.Status != models.StatusUnderReview {
		t.Fatalf("application must stay under_review, got %q", result.Status)
	}
	if result.Order == nil || result.Order.Amount != 5000 {
		t.Fatalf("expected an order for 5000 minor units, got %+v", result.Order)
	}
	if store.appStatus(appID) != models.StatusUnderReview {
		t.Fatal("approval of a payable application must not be synchronous")
	}

	// Completing the payment drives the approval.
	gateway.recordPayment("pay_001", result.Order.OrderReference, 5000, "captured")
	confirm, err := payments.ConfirmOrder(context.Background(), result.Order.OrderReference, "pay_001", signFor(result.Order.OrderReference, "pay_001"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if confirm.ApplicationStatus != models.StatusApproved {
		t.Fatalf("expected approved after confirm, got %q", confirm.ApplicationStatus)
	}
	if store.appStatus(appID) != models.StatusApproved {
		t.Fatal("application not approved after payment confirmation")
	}
}

func TestApproveWithFeeReusesOpenOrder(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(5000, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	gateway := newFakeGateway()
	svc, payments := newTestReviewService(store, gateway)

	existing, err := payments.CreateOrder(context.Background(), appID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionApprove, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != DecisionAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %q", result.Outcome)
	}
	if result.Order.OrderReference != existing.OrderReference {
		t.Fatal("expected the open order to be reused, not duplicated")
	}
	if len(store.ordersFor(appID)) != 1 {
		t.Fatal("duplicate order created")
	}
}

func TestApproveAfterFeeAlreadyCollected(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(5000, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	gateway := newFakeGateway()
	svc, payments := newTestReviewService(store, gateway)

	// Customer pays first; confirm approves the application, so a second
	// reviewer approve on the already-approved application must fail.
	order, _ := payments.CreateOrder(context.Background(), appID)
	gateway.recordPayment("pay_001", order.OrderReference, 5000, "captured")
	if _, err := payments.ConfirmOrder(context.Background(), order.OrderReference, "pay_001", signFor(order.OrderReference, "pay_001")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionApprove, "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on terminal application, got %v", err)
	}
}

func TestRejectRecordsCommentAndCloses(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(5000, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	svc, _ := newTestReviewService(store, newFakeGateway())
	result, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionReject, "incomplete passport scan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != DecisionRejected || result.Status != models.StatusRejected {
		t.Fatalf("unexpected result: %+v", result)
	}

	comments := store.commentsFor(appID)
	if len(comments) != 1 || comments[0].Comment != "incomplete passport scan" {
		t.Fatalf("expected the rejection comment, got %+v", comments)
	}

	// Terminal: nothing else is allowed.
	if _, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionApprove, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after rejection, got %v", err)
	}
}

func TestRequestMoreInfoRoundTrip(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(5000, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	svc, _ := newTestReviewService(store, newFakeGateway())
	result, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, ActionRequestMoreInfo, "need bank statement")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != DecisionMoreInfoRequested || result.Status != models.StatusResent {
		t.Fatalf("unexpected result: %+v", result)
	}

	app, err := svc.SubmitForReview(context.Background(), appID, Actor{UserID: 7, RoleID: models.RoleCustomer}, "statement attached")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Status != models.StatusUnderReview {
		t.Fatalf("expected under_review after resubmit, got %q", app.Status)
	}

	comments := store.commentsFor(appID)
	if len(comments) != 2 {
		t.Fatalf("expected two comments, got %d", len(comments))
	}
	if comments[1].Action != ActionResubmit {
		t.Fatalf("expected resubmit comment, got %+v", comments[1])
	}
}

func TestReviewDecisionUnknownAction(t *testing.T) {
	store := newMemStore()
	visaType := store.addVisaType(0, "INR")
	appID := store.addApplication(7, visaType, models.StatusUnderReview)

	svc, _ := newTestReviewService(store, newFakeGateway())
	if _, err := svc.ReviewDecision(context.Background(), appID, Actor{UserID: 9, RoleID: models.RoleEmployee}, "escalate", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
