package services

import (
	"context"
	"errors"
	"time"

	"visa-management-api/config"
	"visa-management-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var openOrderStates = []string{models.OrderCreated, models.OrderAwaitingConfirmation}

// GormStore implements Store on top of the shared GORM connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore. A nil db falls back to the global
// connection from config.
func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		db = config.DB
	}
	return &GormStore{db: db}
}

func (s *GormStore) LoadApplication(ctx context.Context, id int) (*models.VisaApplication, error) {
	var app models.VisaApplication
	err := s.db.WithContext(ctx).
		Preload("VisaType").Preload("Country").
		Where("application_id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (s *GormStore) LoadVisaType(ctx context.Context, id int) (*models.VisaType, error) {
	var visaType models.VisaType
	err := s.db.WithContext(ctx).Where("visa_type_id = ?", id).First(&visaType).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &visaType, nil
}

func (s *GormStore) UpdateApplicationStatus(ctx context.Context, id int, from, to string, comment *models.ApplicationComment) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":    to,
			"update_at": now,
		}
		switch to {
		case models.StatusUnderReview:
			if from != models.StatusUnderReview {
				updates["submitted_at"] = now
			}
		case models.StatusApproved, models.StatusRejected:
			updates["closed_at"] = now
		}

		res := tx.Model(&models.VisaApplication{}).
			Where("application_id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPersistenceConflict
		}

		if comment != nil {
			comment.ApplicationID = id
			comment.CreateAt = now
			if err := tx.Create(comment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStore) LoadOrder(ctx context.Context, reference string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.WithContext(ctx).Where("order_reference = ?", reference).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) LoadOpenOrder(ctx context.Context, applicationID int) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.WithContext(ctx).
		Where("application_id = ? AND state IN ?", applicationID, openOrderStates).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) LoadConfirmedOrder(ctx context.Context, applicationID int) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.WithContext(ctx).
		Where("application_id = ? AND state = ?", applicationID, models.OrderConfirmed).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CreateOrder locks the application row for the duration of the
// check-and-create, so two concurrent calls cannot both insert an open order.
func (s *GormStore) CreateOrder(ctx context.Context, order *models.PaymentOrder) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var app models.VisaApplication
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("application_id = ?", order.ApplicationID).
			First(&app).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var open int64
		if err := tx.Model(&models.PaymentOrder{}).
			Where("application_id = ? AND state IN ?", order.ApplicationID, openOrderStates).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrOrderAlreadyOpen
		}

		return tx.Create(order).Error
	})
}

func (s *GormStore) UpdateOrderState(ctx context.Context, reference string, from []string, to string, updates map[string]interface{}) error {
	values := map[string]interface{}{
		"state":     to,
		"update_at": time.Now(),
	}
	for column, value := range updates {
		values[column] = value
	}

	res := s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("order_reference = ? AND state IN ?", reference, from).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPersistenceConflict
	}
	return nil
}

// ConfirmOrderAndApprove is the only place an application becomes approved
// through payment. Order confirmation and the status change commit together
// or roll back together.
func (s *GormStore) ConfirmOrderAndApprove(ctx context.Context, reference string, applicationID int, paymentReference string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PaymentOrder{}).
			Where("order_reference = ? AND state IN ?", reference, openOrderStates).
			Updates(map[string]interface{}{
				"state":             models.OrderConfirmed,
				"payment_reference": paymentReference,
				"update_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPersistenceConflict
		}

		var app models.VisaApplication
		if err := tx.Where("application_id = ?", applicationID).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res = tx.Model(&models.VisaApplication{}).
			Where("application_id = ? AND status = ?", applicationID, models.StatusUnderReview).
			Updates(map[string]interface{}{
				"status":    models.StatusApproved,
				"closed_at": now,
				"update_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPersistenceConflict
		}

		comment := models.ApplicationComment{
			ApplicationID: applicationID,
			UserID:        app.UserID,
			Action:        "payment-confirmed",
			Comment:       "Visa fee payment confirmed by gateway",
			CreateAt:      now,
		}
		return tx.Create(&comment).Error
	})
}

func (s *GormStore) ExpireOrdersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("state = ? AND create_at < ?", models.OrderCreated, cutoff).
		Updates(map[string]interface{}{
			"state":         models.OrderCancelled,
			"cancel_reason": "expired",
			"update_at":     time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
