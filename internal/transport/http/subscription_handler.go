package httptransport

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailcapture/backend/internal/domain"
	"mailcapture/backend/internal/service"
)

// SubscriptionHandler 订阅提交处理器
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
	renderer      *Renderer
	log           *zap.Logger
}

// NewSubscriptionHandler 创建订阅提交处理器
func NewSubscriptionHandler(subscriptions *service.SubscriptionService, log *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		renderer:      NewRenderer(),
		log:           log,
	}
}

// Submit godoc
// @Summary 提交邮箱地址
// @Description 接收表单提交的邮箱地址，执行净化、验证、冷却检查后投递到上游后端
// @Tags Subscription
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "邮箱地址"
// @Success 200 {object} Response{data=domain.Feedback}
// @Failure 400 {object} Response{data=domain.Feedback}
// @Failure 422 {object} Response{data=domain.Feedback}
// @Failure 429 {object} Response{data=domain.Feedback}
// @Failure 502 {object} Response{data=domain.Feedback}
// @Router /v1/subscriptions [post]
func (h *SubscriptionHandler) Submit(c *gin.Context) {
	feedback, err := h.subscriptions.Submit(c.Request.Context(), service.SubmitInput{
		Email: c.PostForm("email"),
		IP:    c.ClientIP(),
	})

	rendered := h.renderer.Render(feedback)

	switch {
	case err == nil:
		Success(c, rendered)
	case errors.Is(err, service.ErrCooldownActive):
		TooManyRequests(c, GetErrorMessage(err), rendered)
	case errors.Is(err, service.ErrEmailRequired), errors.Is(err, service.ErrEmailInvalid):
		BadRequest(c, GetErrorMessage(err), rendered)
	case errors.Is(err, service.ErrUpstreamRejected):
		UnprocessableEntity(c, GetErrorMessage(err), rendered)
	case errors.Is(err, service.ErrUpstreamFailed):
		BadGateway(c, GetErrorMessage(err), rendered)
	default:
		h.log.Error("submission failed unexpectedly", zap.Error(err))
		InternalError(c, MsgInternalError)
	}
}

// validateRequest 实时验证请求体
type validateRequest struct {
	Email string `json:"email"`
}

// Validate godoc
// @Summary 实时验证邮箱地址
// @Description 只执行净化和验证，不投递也不消耗冷却窗口（对应输入框失焦校验）
// @Tags Subscription
// @Accept json
// @Produce json
// @Param request body validateRequest true "待验证的邮箱"
// @Success 200 {object} Response{data=domain.ValidationResult}
// @Failure 400 {object} Response
// @Router /v1/subscriptions/validate [post]
func (h *SubscriptionHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidJSON, nil)
		return
	}

	Success(c, h.subscriptions.Validate(req.Email))
}

// GetPublicConfig godoc
// @Summary 获取公开配置
// @Description 获取前端需要的提交限制参数（公开接口，无需认证）
// @Tags Public
// @Produce json
// @Success 200 {object} Response{data=object{cooldownMs=int,maxEmailLength=int}}
// @Router /v1/public/config [get]
func (h *SubscriptionHandler) GetPublicConfig(c *gin.Context) {
	Success(c, gin.H{
		"cooldownMs":     h.subscriptions.CooldownWindow().Milliseconds(),
		"maxEmailLength": domain.MaxEmailLength,
	})
}
