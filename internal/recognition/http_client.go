package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/models"
)

// HTTPClient 基于外部 OCR 服务的识别客户端
type HTTPClient struct {
	endpoint  string
	apiKey    string
	storeName string
	client    *http.Client
}

// NewHTTPClient 创建 HTTP 识别客户端
func NewHTTPClient(cfg *config.RecognitionConfig) (*HTTPClient, error) {
	if cfg == nil || strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, ErrConfigInvalid
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		endpoint:  strings.TrimSpace(cfg.Endpoint),
		apiKey:    strings.TrimSpace(cfg.APIKey),
		storeName: strings.TrimSpace(cfg.StoreName),
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type recognizeResponse struct {
	Total      string  `json:"total"`
	Date       string  `json:"date"`
	StoreName  string  `json:"store_name"`
	Confidence float64 `json:"confidence"`
}

// Recognize 上传小票图片并解析识别结果
func (c *HTTPClient) Recognize(ctx context.Context, image io.Reader, mimeType string) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "receipt")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, err
	}
	if mimeType != "" {
		_ = writer.WriteField("mime_type", mimeType)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var payload recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}

	total, err := models.NewMoneyFromString(payload.Total)
	if err != nil {
		return nil, fmt.Errorf("%w: total %q", ErrResponseInvalid, payload.Total)
	}

	return &Result{
		Total:      total,
		Date:       strings.TrimSpace(payload.Date),
		StoreName:  strings.TrimSpace(payload.StoreName),
		StoreMatch: c.matchStore(payload.StoreName),
		Confidence: payload.Confidence,
	}, nil
}

func (c *HTTPClient) matchStore(recognized string) bool {
	if c.storeName == "" {
		return false
	}
	recognized = strings.ToLower(strings.TrimSpace(recognized))
	if recognized == "" {
		return false
	}
	return strings.Contains(recognized, strings.ToLower(c.storeName))
}
