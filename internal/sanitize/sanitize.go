package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer 负责把不可信的用户输入转换为安全的纯文本。
//
// 净化流程（顺序敏感）：
//  1. 去除首尾空白
//  2. 中和标记：所有 HTML 标签被渲染为惰性文本或直接丢弃
//  3. 删除 ASCII 控制字符（0x00–0x1F 和 0x7F）
//  4. 转换为小写
//
// 所有方法均为纯函数，不修改输入，可安全并发使用。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// New 创建净化器（使用 bluemonday 严格策略，剥离全部标签）。
func New() *Sanitizer {
	return &Sanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize 对邮箱输入执行完整净化流程，永不失败，可能返回空串。
func (s *Sanitizer) Sanitize(raw string) string {
	out := strings.TrimSpace(raw)
	out = s.Neutralize(out)
	out = stripControlChars(out)
	return strings.ToLower(out)
}

// Neutralize 中和字符串中的标记：标签结构被丢弃，文本内容原样保留。
//
// 严格策略会把残留的特殊字符转义为 HTML 实体，这里再反转义一次，
// 使返回值是纯文本而不是实体编码文本（与"以纯文本渲染再读回"等价）。
func (s *Sanitizer) Neutralize(raw string) string {
	return html.UnescapeString(s.policy.Sanitize(raw))
}

// stripControlChars 删除 ASCII 控制字符（0x00–0x1F 与 0x7F）。
func stripControlChars(in string) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
