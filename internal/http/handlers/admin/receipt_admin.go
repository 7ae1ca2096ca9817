package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListReceipts 管理端小票审核列表
func (h *Handler) AdminListReceipts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	userIDStr := strings.TrimSpace(c.Query("user_id"))
	storeMatchRaw := strings.TrimSpace(c.Query("store_match"))
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	var userID uint
	if userIDStr != "" {
		if parsed, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}
	var storeMatch *bool
	if storeMatchRaw != "" {
		if parsed, err := strconv.ParseBool(storeMatchRaw); err == nil {
			storeMatch = &parsed
		}
	}

	claims, total, err := h.ReceiptService.ListAdmin(repository.ReceiptListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      status,
		StoreMatch:  storeMatch,
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, claims, pagination)
}

// AdminGetReceipt 管理端小票详情
func (h *Handler) AdminGetReceipt(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	claim, err := h.ReceiptService.GetAdmin(id)
	if err != nil {
		if errors.Is(err, service.ErrClaimNotFound) {
			respondError(c, response.CodeNotFound, "error.receipt_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	response.Success(c, claim)
}

// ReviewReceiptRequest 审核请求
type ReviewReceiptRequest struct {
	Notes string `json:"notes"`
}

// AdminApproveReceipt 审核通过并发放积分
func (h *Handler) AdminApproveReceipt(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	// 通过时备注可选，请求体允许为空
	var req ReviewReceiptRequest
	_ = c.ShouldBindJSON(&req)

	claim, err := h.ApprovalService.Approve(id, adminID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClaimNotFound):
			respondError(c, response.CodeNotFound, "error.receipt_not_found", nil)
		case errors.Is(err, service.ErrClaimAlreadyReviewed):
			respondError(c, response.CodeConflict, "error.receipt_already_reviewed", nil)
		case errors.Is(err, service.ErrRateNotConfigured):
			respondError(c, response.CodeBadRequest, "error.rate_not_configured", nil)
		case errors.Is(err, service.ErrBalanceConflict):
			respondError(c, response.CodeConflict, "error.balance_out_of_sync", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_receipt_approved",
		"claim_id", claim.ID,
		"admin_id", adminID,
		"points_awarded", claim.PointsAwarded,
	)
	response.Success(c, claim)
}

// AdminRejectReceipt 驳回小票
func (h *Handler) AdminRejectReceipt(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req ReviewReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	claim, err := h.ApprovalService.Reject(id, adminID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClaimNotFound):
			respondError(c, response.CodeNotFound, "error.receipt_not_found", nil)
		case errors.Is(err, service.ErrClaimAlreadyReviewed):
			respondError(c, response.CodeConflict, "error.receipt_already_reviewed", nil)
		case errors.Is(err, service.ErrRejectNotesRequired):
			respondError(c, response.CodeBadRequest, "error.receipt_notes_required", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_receipt_rejected",
		"claim_id", claim.ID,
		"admin_id", adminID,
	)
	response.Success(c, claim)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return 0, false
	}
	return uint(id), true
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, errors.New("invalid time format")
}
