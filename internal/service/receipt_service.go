package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/recognition"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/storage"
)

// ReceiptService 小票提交与查询服务
type ReceiptService struct {
	receiptRepo repository.ReceiptRepository
	imageRepo   repository.ReceiptImageRepository
	userRepo    repository.UserRepository
	recognizer  recognition.Client
	store       storage.ObjectStorage
	uploadCfg   config.UploadConfig
}

// SubmitReceiptInput 小票提交输入
type SubmitReceiptInput struct {
	UserID uint
	File   *multipart.FileHeader
}

// NewReceiptService 创建小票服务
func NewReceiptService(
	receiptRepo repository.ReceiptRepository,
	imageRepo repository.ReceiptImageRepository,
	userRepo repository.UserRepository,
	recognizer recognition.Client,
	store storage.ObjectStorage,
	uploadCfg config.UploadConfig,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo: receiptRepo,
		imageRepo:   imageRepo,
		userRepo:    userRepo,
		recognizer:  recognizer,
		store:       store,
		uploadCfg:   uploadCfg,
	}
}

// Submit 提交小票：识别、双重查重、落库、存图。
// 存图或落库任一步失败时按逆序补偿已完成的写入。
func (s *ReceiptService) Submit(ctx context.Context, input SubmitReceiptInput) (*models.ReceiptClaim, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.File == nil {
		return nil, ErrUploadInvalid
	}
	if s.uploadCfg.MaxSize > 0 && input.File.Size > s.uploadCfg.MaxSize {
		return nil, fmt.Errorf("%w: file too large", ErrUploadInvalid)
	}

	ext := strings.ToLower(filepath.Ext(input.File.Filename))
	if len(s.uploadCfg.AllowedExtensions) > 0 && !isAllowedExtension(ext, s.uploadCfg.AllowedExtensions) {
		return nil, fmt.Errorf("%w: extension %s", ErrUploadInvalid, ext)
	}

	src, err := input.File.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)
	if len(s.uploadCfg.AllowedTypes) > 0 && !isAllowedContentType(contentType, s.uploadCfg.AllowedTypes) {
		return nil, fmt.Errorf("%w: content type %s", ErrUploadInvalid, contentType)
	}

	// 内容查重：同一张图片全局只允许提交一次
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	existing, err := s.imageRepo.GetBySHA256(hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateContent
	}

	result, err := s.recognizer.Recognize(ctx, bytes.NewReader(data), contentType)
	if err != nil {
		logger.Warnw("receipt_recognition_failed", "user_id", input.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRecognitionUnavailable, err)
	}

	// 语义查重：同用户、同日期、同金额、同门店判定
	duplicate, err := s.receiptRepo.FindSemanticDuplicate(input.UserID, result.Date, result.Total, result.StoreMatch, 0)
	if err != nil {
		return nil, err
	}
	if duplicate != nil {
		return nil, ErrDuplicateSemantic
	}

	path, err := s.store.Save(bytes.NewReader(data), ext)
	if err != nil {
		return nil, err
	}

	claim := &models.ReceiptClaim{
		UserID:          input.UserID,
		StoreMatch:      result.StoreMatch,
		RecognizedTotal: result.Total,
		RecognizedDate:  result.Date,
		Confidence:      result.Confidence,
	}
	if err := s.receiptRepo.Create(claim); err != nil {
		s.compensateStoredFile(path, "claim_create_failed")
		return nil, err
	}

	image := &models.ReceiptImage{
		ReceiptID:   claim.ID,
		SHA256Hash:  hash,
		FileSize:    int64(len(data)),
		MimeType:    contentType,
		StoragePath: path,
	}
	if err := s.imageRepo.Create(image); err != nil {
		// 哈希唯一索引兜底并发提交，逆序补偿已写入的审核单和文件
		if derr := s.receiptRepo.Delete(claim.ID); derr != nil {
			logger.Errorw("receipt_claim_compensation_failed",
				"claim_id", claim.ID,
				"error", derr,
				"action_required", "manual_reconciliation",
			)
		}
		s.compensateStoredFile(path, "image_create_failed")
		return nil, ErrDuplicateContent
	}
	claim.Image = image

	if err := s.userRepo.IncrementReceiptCount(input.UserID); err != nil {
		logger.Warnw("receipt_count_increment_failed", "user_id", input.UserID, "error", err)
	}

	logger.Infow("receipt_submitted",
		"claim_id", claim.ID,
		"user_id", input.UserID,
		"total", result.Total.String(),
		"date", result.Date,
		"store_match", result.StoreMatch,
		"confidence", result.Confidence,
	)
	return claim, nil
}

func (s *ReceiptService) compensateStoredFile(path, reason string) {
	if err := s.store.Delete(path); err != nil {
		logger.Errorw("receipt_file_compensation_failed",
			"path", path,
			"reason", reason,
			"error", err,
			"action_required", "manual_reconciliation",
		)
	}
}

// GetForUser 查询用户自己的审核单
func (s *ReceiptService) GetForUser(id uint, userID uint) (*models.ReceiptClaim, error) {
	claim, err := s.receiptRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

// ListForUser 分页查询用户自己的审核单
func (s *ReceiptService) ListForUser(userID uint, filter repository.ReceiptListFilter) ([]models.ReceiptClaim, int64, error) {
	filter.UserID = userID
	return s.receiptRepo.List(filter)
}

// GetAdmin 管理端查询审核单详情
func (s *ReceiptService) GetAdmin(id uint) (*models.ReceiptClaim, error) {
	claim, err := s.receiptRepo.GetByIDWithImage(id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

// ListAdmin 管理端分页查询审核单
func (s *ReceiptService) ListAdmin(filter repository.ReceiptListFilter) ([]models.ReceiptClaim, int64, error) {
	return s.receiptRepo.List(filter)
}

func isAllowedExtension(ext string, allowed []string) bool {
	for _, allowedExt := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(allowedExt))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if strings.EqualFold(ext, normalized) {
			return true
		}
	}
	return false
}

func isAllowedContentType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
