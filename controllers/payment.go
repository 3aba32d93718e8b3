package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"visa-management-api/services"

	"github.com/gin-gonic/gin"
)

var newPaymentService = func() *services.PaymentService {
	return services.NewPaymentService(nil, nil, services.NewNotificationService(nil))
}

// InitiatePayment returns the order the client presents to the gateway. If
// an open order already exists it is returned as-is rather than duplicated.
// A zero-fee application is not an error: the response says no payment is
// required and the reviewer decision alone settles it.
func InitiatePayment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application id"})
		return
	}

	svc := newPaymentService()
	order, err := svc.CreateOrderFor(c.Request.Context(), id, currentActor(c))
	switch {
	case errors.Is(err, services.ErrNotPayable):
		c.JSON(http.StatusOK, gin.H{
			"payment_required": false,
			"message":          "No fee is payable for this application",
		})
		return
	case err != nil && !errors.Is(err, services.ErrOrderAlreadyOpen):
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_required": true,
		"order":            order,
		"existing":         errors.Is(err, services.ErrOrderAlreadyOpen),
	})
}

// ConfirmPayment reconciles the client's completion report. The signature
// is only a hint: the service verifies it and cross-checks the gateway's
// own payment record before anything changes.
func ConfirmPayment(c *gin.Context) {
	reference := c.Param("reference")

	type ConfirmRequest struct {
		PaymentReference string `json:"payment_reference" binding:"required"`
		Signature        string `json:"signature" binding:"required"`
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := newPaymentService()
	result, err := svc.ConfirmOrder(c.Request.Context(), reference, req.PaymentReference, req.Signature)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed",
		"result":  result,
	})
}

// CancelPayment releases an abandoned order so a new one can be created.
func CancelPayment(c *gin.Context) {
	reference := c.Param("reference")

	type CancelRequest struct {
		Reason string `json:"reason"`
	}
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "abandoned"
	}

	svc := newPaymentService()
	if err := svc.CancelOrder(c.Request.Context(), reference, req.Reason); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment order cancelled"})
}
