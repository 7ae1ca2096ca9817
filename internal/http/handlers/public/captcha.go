package public

import (
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetImageCaptcha 获取图片验证码挑战
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil {
		respondError(c, response.CodeInternal, "error.captcha_unavailable", nil)
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondError(c, response.CodeInternal, "error.captcha_unavailable", err)
		return
	}

	response.Success(c, gin.H{
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}

// GetCaptchaScenes 获取验证码场景开关
func (h *Handler) GetCaptchaScenes(c *gin.Context) {
	if h.CaptchaService == nil {
		response.Success(c, gin.H{})
		return
	}
	response.Success(c, gin.H{
		"user_login": h.CaptchaService.SceneEnabled(service.CaptchaSceneUserLogin),
		"register":   h.CaptchaService.SceneEnabled(service.CaptchaSceneRegister),
	})
}
