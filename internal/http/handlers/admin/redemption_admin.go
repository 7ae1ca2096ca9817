package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListRedemptions 管理端兑换列表
func (h *Handler) AdminListRedemptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	status := strings.TrimSpace(c.Query("status"))
	var userID, rewardID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("reward_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			rewardID = uint(parsed)
		}
	}

	redemptions, total, err := h.RedemptionService.List(repository.RedemptionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		RewardID: rewardID,
		Status:   status,
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
	response.SuccessWithPage(c, redemptions, pagination)
}

// AdminGetRedemption 管理端兑换详情
func (h *Handler) AdminGetRedemption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	redemption, err := h.RedemptionRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	if redemption == nil {
		respondError(c, response.CodeNotFound, "error.redemption_not_found", nil)
		return
	}

	response.Success(c, redemption)
}

// RedemptionNotesRequest 兑换处理备注请求
type RedemptionNotesRequest struct {
	Notes string `json:"notes"`
}

// AdminMarkRedemptionProcessing 标记兑换为处理中
func (h *Handler) AdminMarkRedemptionProcessing(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	redemption, err := h.RedemptionService.MarkProcessing(id)
	if err != nil {
		respondRedemptionAdminError(c, err)
		return
	}

	response.Success(c, redemption)
}

// AdminShipRedemption 标记兑换已发货
func (h *Handler) AdminShipRedemption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req RedemptionNotesRequest
	_ = c.ShouldBindJSON(&req)

	redemption, err := h.RedemptionService.Ship(id, req.Notes)
	if err != nil {
		respondRedemptionAdminError(c, err)
		return
	}

	requestLog(c).Infow("admin_redemption_shipped", "redemption_id", redemption.ID)
	response.Success(c, redemption)
}

// AdminCancelRedemption 管理端取消兑换并退回积分
func (h *Handler) AdminCancelRedemption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req RedemptionNotesRequest
	_ = c.ShouldBindJSON(&req)

	redemption, err := h.RedemptionService.CancelByAdmin(id, req.Notes)
	if err != nil {
		respondRedemptionAdminError(c, err)
		return
	}

	requestLog(c).Infow("admin_redemption_cancelled", "redemption_id", redemption.ID)
	response.Success(c, redemption)
}

func respondRedemptionAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRedemptionNotFound):
		respondError(c, response.CodeNotFound, "error.redemption_not_found", nil)
	case errors.Is(err, service.ErrRedemptionNotCancel),
		errors.Is(err, service.ErrRedemptionStateInvalid):
		respondError(c, response.CodeBadRequest, "error.redemption_state_invalid", nil)
	case errors.Is(err, service.ErrBalanceConflict):
		respondError(c, response.CodeConflict, "error.balance_out_of_sync", nil)
	default:
		respondError(c, response.CodeInternal, "error.save_failed", err)
	}
}
