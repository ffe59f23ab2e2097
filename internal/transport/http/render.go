package httptransport

import (
	"mailcapture/backend/internal/domain"
	"mailcapture/backend/internal/sanitize"
)

// Renderer 负责渲染反馈消息。所有写入响应的消息文本先过一遍标记中和，
// 防止上游返回的字符串把标签带到调用方页面上（纵深防御）。
type Renderer struct {
	sanitizer *sanitize.Sanitizer
}

// NewRenderer 创建渲染器。
func NewRenderer() *Renderer {
	return &Renderer{
		sanitizer: sanitize.New(),
	}
}

// Render 返回消息已中和的反馈副本，不修改入参。
func (r *Renderer) Render(feedback *domain.Feedback) *domain.Feedback {
	if feedback == nil {
		return nil
	}
	return &domain.Feedback{
		Message: r.sanitizer.Neutralize(feedback.Message),
		Kind:    feedback.Kind,
	}
}
