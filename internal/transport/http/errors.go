package httptransport

import (
	"mailcapture/backend/internal/service"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	service.ErrEmailRequired:    "邮箱地址不能为空",
	service.ErrEmailInvalid:     "邮箱地址未通过验证",
	service.ErrCooldownActive:   "提交过于频繁，请稍后再试",
	service.ErrUpstreamFailed:   "上游投递失败",
	service.ErrUpstreamRejected: "上游拒绝了该提交",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest   = "请求参数格式错误"
	MsgInvalidJSON      = "JSON格式错误"
	MsgRequestBodyEmpty = "请求体不能为空"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
