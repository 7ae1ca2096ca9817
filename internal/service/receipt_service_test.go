package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/recognition"
	"github.com/loyalty-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeRecognizer struct {
	result *recognition.Result
	err    error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image io.Reader, mimeType string) (*recognition.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStorage struct {
	saves   int
	deletes []string
	saveErr error
}

func (f *fakeStorage) Save(r io.Reader, ext string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.saves++
	return fmt.Sprintf("receipts/fake_%d%s", f.saves, ext), nil
}

func (f *fakeStorage) Delete(path string) error {
	f.deletes = append(f.deletes, path)
	return nil
}

// failingImageRepo 模拟哈希唯一索引冲突等图片落库失败
type failingImageRepo struct {
	repository.ReceiptImageRepository
}

func (r *failingImageRepo) Create(image *models.ReceiptImage) error {
	return errors.New("UNIQUE constraint failed: receipt_images.sha256_hash")
}

func setupReceiptServiceTest(t *testing.T, recognizer recognition.Client, store *fakeStorage) (*ReceiptService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:receipt_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.ReceiptClaim{}, &models.ReceiptImage{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewReceiptService(
		repository.NewReceiptRepository(db),
		repository.NewReceiptImageRepository(db),
		repository.NewUserRepository(db),
		recognizer,
		store,
		config.UploadConfig{
			MaxSize:           1 << 20,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
		},
	)
	return svc, db
}

func createReceiptTestUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("receipt_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func makeUploadFile(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file failed: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write form file failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/receipts", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("parse multipart form failed: %v", err)
	}
	files := req.MultipartForm.File["file"]
	if len(files) != 1 {
		t.Fatalf("file count want 1 got %d", len(files))
	}
	return files[0]
}

func TestReceiptServiceSubmit(t *testing.T) {
	recognizer := &fakeRecognizer{result: &recognition.Result{
		Total:      models.NewMoneyFromFloat(259),
		Date:       "2026-08-20",
		StoreName:  "全家便利店",
		StoreMatch: true,
		Confidence: 0.97,
	}}
	store := &fakeStorage{}
	svc, db := setupReceiptServiceTest(t, recognizer, store)
	createReceiptTestUser(t, db, 301)

	claim, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 301,
		File:   makeUploadFile(t, "receipt.jpg", []byte("receipt-image-bytes-301")),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if claim.Status != constants.ReceiptStatusPending {
		t.Fatalf("status want pending got %s", claim.Status)
	}
	if claim.RecognizedTotal.String() != "259" || claim.RecognizedDate != "2026-08-20" {
		t.Fatalf("unexpected recognition fields: %+v", claim)
	}
	if claim.Image == nil || claim.Image.SHA256Hash == "" {
		t.Fatalf("image record should be attached: %+v", claim.Image)
	}
	if store.saves != 1 {
		t.Fatalf("storage saves want 1 got %d", store.saves)
	}

	var user models.User
	if err := db.First(&user, 301).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if user.TotalReceipts != 1 {
		t.Fatalf("total_receipts want 1 got %d", user.TotalReceipts)
	}
}

func TestReceiptServiceSubmitDuplicateContent(t *testing.T) {
	recognizer := &fakeRecognizer{result: &recognition.Result{
		Total:      models.NewMoneyFromFloat(100),
		Date:       "2026-08-21",
		StoreMatch: true,
		Confidence: 0.9,
	}}
	store := &fakeStorage{}
	svc, db := setupReceiptServiceTest(t, recognizer, store)
	createReceiptTestUser(t, db, 302)
	createReceiptTestUser(t, db, 303)

	data := []byte("same-receipt-image-bytes")
	if _, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 302,
		File:   makeUploadFile(t, "a.jpg", data),
	}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// 同一张图换个用户提交也要被内容查重拦下
	_, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 303,
		File:   makeUploadFile(t, "b.jpg", data),
	})
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("expected duplicate content, got: %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("duplicate should not reach storage, saves = %d", store.saves)
	}
}

func TestReceiptServiceSubmitDuplicateSemantic(t *testing.T) {
	recognizer := &fakeRecognizer{result: &recognition.Result{
		Total:      models.NewMoneyFromFloat(88.5),
		Date:       "2026-08-22",
		StoreMatch: true,
		Confidence: 0.9,
	}}
	store := &fakeStorage{}
	svc, db := setupReceiptServiceTest(t, recognizer, store)
	createReceiptTestUser(t, db, 304)

	if _, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 304,
		File:   makeUploadFile(t, "first.jpg", []byte("receipt-photo-angle-one")),
	}); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// 不同照片、同一单据（同用户同日期同金额）命中语义查重
	_, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 304,
		File:   makeUploadFile(t, "second.jpg", []byte("receipt-photo-angle-two")),
	})
	if !errors.Is(err, ErrDuplicateSemantic) {
		t.Fatalf("expected duplicate semantic, got: %v", err)
	}

	var count int64
	if err := db.Model(&models.ReceiptClaim{}).Where("user_id = ?", 304).Count(&count).Error; err != nil {
		t.Fatalf("count claims failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("claim count want 1 got %d", count)
	}
}

func TestReceiptServiceSubmitRecognitionFailure(t *testing.T) {
	recognizer := &fakeRecognizer{err: errors.New("provider timeout")}
	store := &fakeStorage{}
	svc, db := setupReceiptServiceTest(t, recognizer, store)
	createReceiptTestUser(t, db, 305)

	_, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 305,
		File:   makeUploadFile(t, "receipt.jpg", []byte("unrecognizable-bytes")),
	})
	if !errors.Is(err, ErrRecognitionUnavailable) {
		t.Fatalf("expected recognition unavailable, got: %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("failed recognition should not store file, saves = %d", store.saves)
	}

	var count int64
	if err := db.Model(&models.ReceiptClaim{}).Count(&count).Error; err != nil {
		t.Fatalf("count claims failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("claim count want 0 got %d", count)
	}
}

func TestReceiptServiceSubmitImageCreateCompensation(t *testing.T) {
	recognizer := &fakeRecognizer{result: &recognition.Result{
		Total:      models.NewMoneyFromFloat(120),
		Date:       "2026-08-23",
		StoreMatch: true,
		Confidence: 0.95,
	}}
	store := &fakeStorage{}
	svc, db := setupReceiptServiceTest(t, recognizer, store)
	createReceiptTestUser(t, db, 306)

	svc.imageRepo = &failingImageRepo{ReceiptImageRepository: svc.imageRepo}

	_, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 306,
		File:   makeUploadFile(t, "receipt.jpg", []byte("compensated-bytes")),
	})
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("expected duplicate content on image conflict, got: %v", err)
	}

	// 审核单与文件都要被逆序补偿掉
	var count int64
	if err := db.Model(&models.ReceiptClaim{}).Where("user_id = ?", 306).Count(&count).Error; err != nil {
		t.Fatalf("count claims failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("claim should be compensated away, count = %d", count)
	}
	if len(store.deletes) != 1 {
		t.Fatalf("stored file should be deleted, deletes = %v", store.deletes)
	}
}

func TestReceiptServiceSubmitUploadValidation(t *testing.T) {
	recognizer := &fakeRecognizer{result: &recognition.Result{Total: models.NewMoneyFromFloat(10), Date: "2026-08-24", StoreMatch: true}}
	store := &fakeStorage{}
	svc, db := setupReceiptServiceTest(t, recognizer, store)
	createReceiptTestUser(t, db, 307)

	if _, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 307,
		File:   makeUploadFile(t, "receipt.gif", []byte("gif-bytes")),
	}); !errors.Is(err, ErrUploadInvalid) {
		t.Fatalf("expected upload invalid for extension, got: %v", err)
	}

	svc.uploadCfg.MaxSize = 16
	if _, err := svc.Submit(context.Background(), SubmitReceiptInput{
		UserID: 307,
		File:   makeUploadFile(t, "receipt.jpg", bytes.Repeat([]byte("x"), 64)),
	}); !errors.Is(err, ErrUploadInvalid) {
		t.Fatalf("expected upload invalid for size, got: %v", err)
	}

	if _, err := svc.Submit(context.Background(), SubmitReceiptInput{UserID: 307}); !errors.Is(err, ErrUploadInvalid) {
		t.Fatalf("expected upload invalid for missing file, got: %v", err)
	}
}
