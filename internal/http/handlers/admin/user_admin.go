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

// AdminListUsers 管理端用户列表
func (h *Handler) AdminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	search := strings.TrimSpace(c.Query("search"))
	status := strings.TrimSpace(c.Query("status"))

	users, total, err := h.UserRepo.List(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  search,
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
	response.SuccessWithPage(c, users, pagination)
}

// AdminGetUser 管理端用户详情（含流水一致性核对）
func (h *Handler) AdminGetUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	user, err := h.UserRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		return
	}

	consistent, balance, ledgerSum, err := h.PointsService.VerifyLedgerConsistency(id)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	response.Success(c, gin.H{
		"user":              user,
		"ledger_consistent": consistent,
		"point_balance":     balance,
		"ledger_sum":        ledgerSum,
	})
}

// UserStatusRequest 用户状态批量更新请求
type UserStatusRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// AdminUpdateUserStatus 批量启用/禁用用户
func (h *Handler) AdminUpdateUserStatus(c *gin.Context) {
	var req UserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	if req.Status != "active" && req.Status != "disabled" {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	if err := h.UserRepo.BatchUpdateStatus(req.UserIDs, req.Status); err != nil {
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	requestLog(c).Infow("admin_user_status_updated", "user_ids", req.UserIDs, "status", req.Status)
	response.Success(c, nil)
}

// GrantBonusRequest 奖励积分发放请求
type GrantBonusRequest struct {
	Points int64  `json:"points" binding:"required"`
	Remark string `json:"remark"`
}

// AdminGrantBonus 管理端发放奖励积分
func (h *Handler) AdminGrantBonus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req GrantBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}

	entry, err := h.PointsService.GrantBonus(id, req.Points, adminID, req.Remark)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		case errors.Is(err, service.ErrBonusInvalid):
			respondError(c, response.CodeBadRequest, "error.bonus_invalid", nil)
		case errors.Is(err, service.ErrBalanceConflict):
			respondError(c, response.CodeConflict, "error.balance_out_of_sync", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_bonus_granted",
		"admin_id", adminID,
		"user_id", id,
		"points", req.Points,
	)
	response.Success(c, entry)
}

// AdminListUserLedger 管理端查看用户积分流水
func (h *Handler) AdminListUserLedger(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	entryType := strings.TrimSpace(c.Query("type"))

	entries, total, err := h.PointsService.ListLedger(repository.LedgerListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   id,
		Type:     entryType,
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
	response.SuccessWithPage(c, entries, pagination)
}
