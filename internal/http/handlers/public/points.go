package public

import (
	"strconv"
	"strings"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetMyBalance 查询当前积分余额
func (h *Handler) GetMyBalance(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	balance, err := h.PointsService.GetBalance(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	response.Success(c, gin.H{"point_balance": balance})
}

// ListMyLedger 查询当前用户积分流水
func (h *Handler) ListMyLedger(c *gin.Context) {
	userID, ok := getUserID(c)
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
		UserID:   userID,
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
