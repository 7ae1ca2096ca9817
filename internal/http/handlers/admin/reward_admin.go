package admin

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

// AdminRewardView 管理端奖品返回（含推导库存）
type AdminRewardView struct {
	models.Reward
	RemainingStock *int64 `json:"remaining_stock"`
}

// RewardRequest 奖品创建/更新请求
type RewardRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	PointsCost    int64  `json:"points_cost" binding:"required"`
	StockQuantity *int   `json:"stock_quantity"`
	ImageURL      string `json:"image_url"`
	IsActive      *bool  `json:"is_active"`
}

// AdminListRewards 管理端奖品列表
func (h *Handler) AdminListRewards(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	search := strings.TrimSpace(c.Query("search"))

	rewards, total, err := h.RewardService.List(repository.RewardListFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	items := make([]AdminRewardView, 0, len(rewards))
	for i := range rewards {
		remaining, err := h.RewardService.RemainingStock(&rewards[i])
		if err != nil {
			respondError(c, response.CodeInternal, "error.fetch_failed", err)
			return
		}
		items = append(items, AdminRewardView{Reward: rewards[i], RemainingStock: remaining})
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, items, pagination)
}

// AdminGetReward 管理端奖品详情
func (h *Handler) AdminGetReward(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	reward, err := h.RewardService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrRewardNotFound) {
			respondError(c, response.CodeNotFound, "error.reward_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	remaining, err := h.RewardService.RemainingStock(reward)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, AdminRewardView{Reward: *reward, RemainingStock: remaining})
}

// AdminCreateReward 创建奖品
func (h *Handler) AdminCreateReward(c *gin.Context) {
	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	reward, err := h.RewardService.Create(service.RewardInput{
		Name:          req.Name,
		Description:   req.Description,
		PointsCost:    req.PointsCost,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrRewardInvalid) {
			respondError(c, response.CodeBadRequest, "error.invalid_params", err)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	requestLog(c).Infow("admin_reward_created", "reward_id", reward.ID, "name", reward.Name)
	response.Success(c, reward)
}

// AdminUpdateReward 更新奖品
func (h *Handler) AdminUpdateReward(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req RewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	reward, err := h.RewardService.Update(id, service.RewardInput{
		Name:          req.Name,
		Description:   req.Description,
		PointsCost:    req.PointsCost,
		StockQuantity: req.StockQuantity,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrRewardNotFound) {
			respondError(c, response.CodeNotFound, "error.reward_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	response.Success(c, reward)
}

// AdminDeleteReward 删除奖品
func (h *Handler) AdminDeleteReward(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.RewardService.Delete(id); err != nil {
		if errors.Is(err, service.ErrRewardNotFound) {
			respondError(c, response.CodeNotFound, "error.reward_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	response.Success(c, nil)
}
