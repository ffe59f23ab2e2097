package domain

import (
	"regexp"
	"strings"

	"mailcapture/backend/internal/security"
)

// 验证常量
const (
	// MaxEmailLength RFC 5321 信封地址长度上限
	MaxEmailLength = 254
)

// 用户可见的验证消息。这些字符串是对外契约的一部分，修改会破坏前端提示。
const (
	MsgEmailTooLong     = "Email address is too long."
	MsgEmailInvalid     = "Please enter a valid email address."
	MsgInvalidCharacter = "Invalid characters detected."
)

// emailShapeRegex 校验邮箱的基本形态：本地部分@域名.顶级域（2+ 字母）。
//
// 刻意不做完整的 RFC 5322 校验（不支持带引号的本地部分、国际化域名），
// 这组规则本身就是契约，不要"修复"成完整 RFC 实现。
var emailShapeRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidationResult 验证结果。不变式：Message 非空当且仅当 Valid 为 false。
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// EmailValidator 邮箱验证器。语法层面的非权威校验（不做投递性/MX 验证），
// 上游后端必须重新验证。
type EmailValidator struct {
	filter *security.ContentFilter
}

// NewEmailValidator 创建邮箱验证器。
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{
		filter: security.NewContentFilter(),
	}
}

// Validate 按固定顺序执行验证规则，首个失败即返回：
//  1. 长度超过 254 → 地址过长
//  2. 命中可疑内容模式（<script、javascript: 等）→ 非法字符
//  3. 不符合基本形态正则 → 格式无效
//  4. 连续点、以点或 @ 开头、以 @ 结尾 → 格式无效
//
// 可疑内容检查先于形态检查，保证注入类输入拿到专门的提示而不是
// 笼统的格式错误。
func (v *EmailValidator) Validate(email string) ValidationResult {
	if len(email) > MaxEmailLength {
		return invalid(MsgEmailTooLong)
	}

	if v.filter.Suspicious(email) {
		return invalid(MsgInvalidCharacter)
	}

	if !emailShapeRegex.MatchString(email) {
		return invalid(MsgEmailInvalid)
	}

	if strings.Contains(email, "..") ||
		strings.HasPrefix(email, ".") ||
		strings.HasPrefix(email, "@") ||
		strings.HasSuffix(email, "@") {
		return invalid(MsgEmailInvalid)
	}

	return ValidationResult{Valid: true}
}

func invalid(message string) ValidationResult {
	return ValidationResult{Valid: false, Message: message}
}
