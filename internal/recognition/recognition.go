package recognition

import (
	"context"
	"errors"
	"io"

	"github.com/loyalty-next/internal/models"
)

var (
	// ErrConfigInvalid 识别服务配置缺失或不合法
	ErrConfigInvalid = errors.New("recognition config invalid")
	// ErrRequestFailed 识别服务请求失败
	ErrRequestFailed = errors.New("recognition request failed")
	// ErrResponseInvalid 识别服务返回内容无法解析
	ErrResponseInvalid = errors.New("recognition response invalid")
)

// Result 小票识别结果
type Result struct {
	Total      models.Money // 识别出的消费金额
	Date       string       // 识别出的消费日期（YYYY-MM-DD）
	StoreName  string       // 识别出的门店名称
	StoreMatch bool         // 门店是否与活动门店匹配
	Confidence float64      // 识别置信度 0~1
}

// Client 小票识别客户端接口
type Client interface {
	Recognize(ctx context.Context, image io.Reader, mimeType string) (*Result, error)
}
