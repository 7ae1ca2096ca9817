package recognition

import (
	"context"
	"io"
	"time"

	"github.com/loyalty-next/internal/models"
)

// StubClient 本地开发用的固定结果识别客户端
type StubClient struct {
	Total      models.Money
	Date       string
	StoreMatch bool
	Confidence float64
}

// NewStubClient 创建固定结果客户端，默认返回当天、100 铢、门店匹配
func NewStubClient() *StubClient {
	return &StubClient{
		Total:      models.NewMoneyFromFloat(100),
		Date:       time.Now().Format("2006-01-02"),
		StoreMatch: true,
		Confidence: 0.99,
	}
}

// Recognize 返回预设结果，不读取图片内容
func (c *StubClient) Recognize(_ context.Context, _ io.Reader, _ string) (*Result, error) {
	return &Result{
		Total:      c.Total,
		Date:       c.Date,
		StoreMatch: c.StoreMatch,
		Confidence: c.Confidence,
	}, nil
}
