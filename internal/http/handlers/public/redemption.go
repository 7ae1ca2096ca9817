package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateRedemptionRequest 创建兑换请求
type CreateRedemptionRequest struct {
	RewardID uint `json:"reward_id" binding:"required"`
	Quantity int  `json:"quantity"`
}

// CreateRedemption 发起奖品兑换
func (h *Handler) CreateRedemption(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	redemption, err := h.RedemptionService.Redeem(userID, req.RewardID, req.Quantity)
	if err != nil {
		respondRedemptionCreateError(c, err)
		return
	}

	response.Success(c, redemption)
}

// ListMyRedemptions 我的兑换记录
func (h *Handler) ListMyRedemptions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	redemptions, total, err := h.RedemptionService.List(repository.RedemptionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
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

// GetMyRedemption 我的兑换详情
func (h *Handler) GetMyRedemption(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	redemption, err := h.RedemptionService.GetForUser(uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRedemptionNotFound):
			respondError(c, response.CodeNotFound, "error.redemption_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.fetch_failed", err)
		}
		return
	}

	response.Success(c, redemption)
}

// CancelMyRedemption 用户取消兑换并退回积分
func (h *Handler) CancelMyRedemption(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	redemption, err := h.RedemptionService.CancelByUser(uint(id), userID)
	if err != nil {
		respondRedemptionCancelError(c, err)
		return
	}

	response.Success(c, redemption)
}
