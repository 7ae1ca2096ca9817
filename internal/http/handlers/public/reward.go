package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// PublicRewardView 奖品响应结构（含推导库存）
type PublicRewardView struct {
	models.Reward
	RemainingStock *int64 `json:"remaining_stock"` // 剩余库存（NULL 表示不限量）
}

// ListRewards 奖品目录（仅上架）
func (h *Handler) ListRewards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	search := strings.TrimSpace(c.Query("search"))

	rewards, total, err := h.RewardService.List(repository.RewardListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     search,
		OnlyActive: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	items := make([]PublicRewardView, 0, len(rewards))
	for i := range rewards {
		remaining, err := h.RewardService.RemainingStock(&rewards[i])
		if err != nil {
			respondError(c, response.CodeInternal, "error.fetch_failed", err)
			return
		}
		items = append(items, PublicRewardView{Reward: rewards[i], RemainingStock: remaining})
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, items, pagination)
}

// GetReward 奖品详情
func (h *Handler) GetReward(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	reward, err := h.RewardService.Get(uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			respondError(c, response.CodeNotFound, "error.reward_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.fetch_failed", err)
		}
		return
	}
	if !reward.IsActive {
		respondError(c, response.CodeNotFound, "error.reward_not_found", nil)
		return
	}

	remaining, err := h.RewardService.RemainingStock(reward)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	response.Success(c, PublicRewardView{Reward: *reward, RemainingStock: remaining})
}
