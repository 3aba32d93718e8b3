package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"visa-management-api/models"
)

// memStore is an in-memory Store with the same atomicity contract as the
// GORM implementation: check-and-create and confirm-and-approve run under
// one lock, status updates are compare-and-set.
type memStore struct {
	mu        sync.Mutex
	apps      map[int]*models.VisaApplication
	visaTypes map[int]*models.VisaType
	orders    map[string]*models.PaymentOrder
	comments  []models.ApplicationComment
	nextApp   int
}

func newMemStore() *memStore {
	return &memStore{
		apps:      make(map[int]*models.VisaApplication),
		visaTypes: make(map[int]*models.VisaType),
		orders:    make(map[string]*models.PaymentOrder),
		nextApp:   1,
	}
}

func (m *memStore) addVisaType(fee int64, currency string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.visaTypes) + 1
	m.visaTypes[id] = &models.VisaType{
		VisaTypeID: id,
		CountryID:  1,
		FeeAmount:  fee,
		Currency:   currency,
		Status:     "active",
	}
	return id
}

func (m *memStore) addApplication(userID int, visaTypeID int, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextApp
	m.nextApp++
	now := time.Now()
	m.apps[id] = &models.VisaApplication{
		ApplicationID:     id,
		ApplicationNumber: fmt.Sprintf("VSA-TEST-%04d", id),
		UserID:            userID,
		CountryID:         1,
		VisaTypeID:        visaTypeID,
		Status:            status,
		CreateAt:          &now,
		UpdateAt:          &now,
	}
	return id
}

func (m *memStore) appStatus(id int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apps[id].Status
}

func (m *memStore) orderState(reference string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[reference].State
}

func (m *memStore) setOrderCreateAt(reference string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[reference].CreateAt = at
}

func (m *memStore) commentsFor(id int) []models.ApplicationComment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ApplicationComment
	for _, comment := range m.comments {
		if comment.ApplicationID == id {
			out = append(out, comment)
		}
	}
	return out
}

func (m *memStore) ordersFor(id int) []models.PaymentOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PaymentOrder
	for _, order := range m.orders {
		if order.ApplicationID == id {
			out = append(out, *order)
		}
	}
	return out
}

func (m *memStore) LoadApplication(ctx context.Context, id int) (*models.VisaApplication, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (m *memStore) LoadVisaType(ctx context.Context, id int) (*models.VisaType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	visaType, ok := m.visaTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *visaType
	return &copied, nil
}

func (m *memStore) UpdateApplicationStatus(ctx context.Context, id int, from, to string, comment *models.ApplicationComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok || app.Status != from {
		return ErrPersistenceConflict
	}
	app.Status = to
	now := time.Now()
	app.UpdateAt = &now
	if comment != nil {
		comment.ApplicationID = id
		comment.CreateAt = now
		m.comments = append(m.comments, *comment)
	}
	return nil
}

func (m *memStore) LoadOrder(ctx context.Context, reference string) (*models.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[reference]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *memStore) LoadOpenOrder(ctx context.Context, applicationID int) (*models.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.ApplicationID == applicationID && order.IsOpen() {
			copied := *order
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) LoadConfirmedOrder(ctx context.Context, applicationID int) (*models.PaymentOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, order := range m.orders {
		if order.ApplicationID == applicationID && order.State == models.OrderConfirmed {
			copied := *order
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) CreateOrder(ctx context.Context, order *models.PaymentOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[order.ApplicationID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.orders {
		if existing.ApplicationID == order.ApplicationID && existing.IsOpen() {
			return ErrOrderAlreadyOpen
		}
	}
	copied := *order
	m.orders[order.OrderReference] = &copied
	return nil
}

func (m *memStore) UpdateOrderState(ctx context.Context, reference string, from []string, to string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[reference]
	if !ok {
		return ErrPersistenceConflict
	}
	matched := false
	for _, state := range from {
		if order.State == state {
			matched = true
			break
		}
	}
	if !matched {
		return ErrPersistenceConflict
	}
	order.State = to
	now := time.Now()
	order.UpdateAt = &now
	if reason, ok := updates["cancel_reason"].(*string); ok {
		order.CancelReason = reason
	}
	if payment, ok := updates["payment_reference"].(*string); ok {
		order.PaymentReference = payment
	}
	return nil
}

func (m *memStore) ConfirmOrderAndApprove(ctx context.Context, reference string, applicationID int, paymentReference string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[reference]
	if !ok || !order.IsOpen() {
		return ErrPersistenceConflict
	}
	app, ok := m.apps[applicationID]
	if !ok {
		return ErrNotFound
	}
	if app.Status != models.StatusUnderReview {
		return ErrPersistenceConflict
	}

	now := time.Now()
	order.State = models.OrderConfirmed
	order.PaymentReference = &paymentReference
	order.UpdateAt = &now
	app.Status = models.StatusApproved
	app.ClosedAt = &now
	app.UpdateAt = &now
	m.comments = append(m.comments, models.ApplicationComment{
		ApplicationID: applicationID,
		UserID:        app.UserID,
		Action:        "payment-confirmed",
		CreateAt:      now,
	})
	return nil
}

func (m *memStore) ExpireOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var released int64
	reason := "expired"
	for _, order := range m.orders {
		if order.State == models.OrderCreated && order.CreateAt.Before(cutoff) {
			order.State = models.OrderCancelled
			order.CancelReason = &reason
			released++
		}
	}
	return released, nil
}

const testGatewaySecret = "test-gateway-secret"

// fakeGateway simulates the remote provider. Signatures use the same HMAC
// scheme as the real client so verification code paths are identical.
type fakeGateway struct {
	mu          sync.Mutex
	seq         int
	createFails int
	createErr   error
	fetchErr    error
	payments    map[string]*RemotePayment
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*RemotePayment)}
}

func (g *fakeGateway) CreateRemoteOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*RemoteOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.createFails > 0 {
		g.createFails--
		return nil, errors.New("dial tcp: connection refused")
	}
	g.seq++
	return &RemoteOrder{
		Reference: fmt.Sprintf("order_%06d", g.seq),
		Amount:    amount,
		Currency:  currency,
		KeyID:     g.ClientKey(),
	}, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentReference string) (*RemotePayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	payment, ok := g.payments[paymentReference]
	if !ok {
		return nil, errors.New("payment not found")
	}
	copied := *payment
	return &copied, nil
}

func (g *fakeGateway) VerifySignature(orderReference, paymentReference, signature string) bool {
	return signFor(orderReference, paymentReference) == signature
}

func (g *fakeGateway) ClientKey() string { return "key_test" }

// recordPayment registers a captured payment on the fake provider side.
func (g *fakeGateway) recordPayment(paymentReference, orderReference string, amount int64, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[paymentReference] = &RemotePayment{
		Reference:      paymentReference,
		OrderReference: orderReference,
		Amount:         amount,
		Currency:       "INR",
		Status:         status,
	}
}

func signFor(orderReference, paymentReference string) string {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(orderReference + "|" + paymentReference))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestPaymentService(store *memStore, gateway *fakeGateway) *PaymentService {
	svc := NewPaymentService(store, gateway, nil)
	svc.backoff = time.Millisecond
	return svc
}
