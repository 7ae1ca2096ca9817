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

// SubmitReceipt 提交小票图片
func (h *Handler) SubmitReceipt(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.invalid_params", err)
		return
	}
	if h.Config.Upload.MaxSize > 0 && file.Size > h.Config.Upload.MaxSize {
		respondError(c, response.CodeBadRequest, "error.upload_too_large", nil)
		return
	}

	claim, err := h.ReceiptService.Submit(c.Request.Context(), service.SubmitReceiptInput{
		UserID: userID,
		File:   file,
	})
	if err != nil {
		respondReceiptSubmitError(c, err)
		return
	}

	response.Success(c, claim)
}

// ListMyReceipts 我的小票列表
func (h *Handler) ListMyReceipts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	status := strings.TrimSpace(c.Query("status"))

	claims, total, err := h.ReceiptService.ListForUser(userID, repository.ReceiptListFilter{
		Page:     page,
		PageSize: pageSize,
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
	response.SuccessWithPage(c, claims, pagination)
}

// GetMyReceipt 我的小票详情
func (h *Handler) GetMyReceipt(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.invalid_params", nil)
		return
	}

	claim, err := h.ReceiptService.GetForUser(uint(id), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClaimNotFound):
			respondError(c, response.CodeNotFound, "error.receipt_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.fetch_failed", err)
		}
		return
	}

	response.Success(c, claim)
}
