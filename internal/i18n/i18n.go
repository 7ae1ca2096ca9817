package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleEN = "en"
	LocaleZH = "zh-CN"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleZH

// ResolveLocale 解析请求语言，优先级：query > header > 默认值
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := normalize(c.Query("lang")); lang != "" {
		return lang
	}
	accept := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(accept, ",") {
		if lang := normalize(strings.SplitN(part, ";", 2)[0]); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

// T 按语言取文案，缺失时回退到英文，再回退到 key 本身
func T(locale, key string) string {
	if messages, ok := catalog[locale]; ok {
		if msg, ok := messages[key]; ok {
			return msg
		}
	}
	if msg, ok := catalog[LocaleEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 取文案并格式化参数
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func normalize(lang string) string {
	lang = strings.TrimSpace(strings.ToLower(lang))
	switch {
	case lang == "":
		return ""
	case strings.HasPrefix(lang, "zh"):
		return LocaleZH
	case strings.HasPrefix(lang, "en"):
		return LocaleEN
	}
	return ""
}
