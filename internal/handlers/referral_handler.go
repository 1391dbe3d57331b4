package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/services/commission"
	"github.com/sitespark/backend/internal/services/viral"
)

// ReferralHandler handles referral conversions, commissions and milestones
type ReferralHandler struct {
	ingestor      *viral.Ingestor
	dispatcher    *viral.Dispatcher
	commissionSvc *commission.Service
}

// NewReferralHandler creates a new referral handler
func NewReferralHandler(ingestor *viral.Ingestor, dispatcher *viral.Dispatcher, commissionSvc *commission.Service) *ReferralHandler {
	return &ReferralHandler{
		ingestor:      ingestor,
		dispatcher:    dispatcher,
		commissionSvc: commissionSvc,
	}
}

// RecordConversionRequest reports that a referred user became active
type RecordConversionRequest struct {
	RefereeID   uuid.UUID  `json:"referee_id" binding:"required"`
	ConvertedAt *time.Time `json:"converted_at"`
}

// RecordConversion appends the referral edge for the authenticated
// referrer. A duplicate conversion is reported as already applied, not as
// a failure.
func (h *ReferralHandler) RecordConversion(c *gin.Context) {
	referrerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req RecordConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convertedAt := time.Now()
	if req.ConvertedAt != nil {
		convertedAt = *req.ConvertedAt
	}

	edge, err := h.ingestor.RecordReferralConversion(referrerID, req.RefereeID, convertedAt)
	if err != nil {
		if errors.Is(err, viral.ErrDuplicateConversion) {
			c.JSON(http.StatusOK, gin.H{"status": "already_recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record conversion"})
		return
	}

	c.JSON(http.StatusCreated, edge)
}

// RecordRevenueRequest is the billing collaborator's revenue report
type RecordRevenueRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	Period      string    `json:"period" binding:"required"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
}

// RecordRevenue stores one user's revenue for a billing period (admin only)
func (h *ReferralHandler) RecordRevenue(c *gin.Context) {
	var req RecordRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	revenue, err := h.ingestor.RecordPeriodRevenue(req.UserID, req.Period, req.AmountMinor, req.Currency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, revenue)
}

// GetCommissionSummary returns the caller's commission rollup
func (h *ReferralHandler) GetCommissionSummary(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summary, err := h.commissionSvc.GetSummary(userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute commission summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetMilestoneStatus returns the caller's earned one-time rewards
func (h *ReferralHandler) GetMilestoneStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	records, err := h.dispatcher.GetMilestoneStatus(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load milestones"})
		return
	}

	c.JSON(http.StatusOK, records)
}
