package security

import (
	"regexp"
)

// ContentFilter 检测输入中的可疑内容（脚本注入、事件处理器等）。
//
// 这是一个语法层面的黑名单过滤，不做任何解码或规范化，
// 命中即拒绝，除拒绝外没有额外的安全动作。
type ContentFilter struct {
	suspiciousPatterns []*regexp.Regexp
}

// NewContentFilter 创建内容过滤器。
func NewContentFilter() *ContentFilter {
	return &ContentFilter{
		suspiciousPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)<script`),
			regexp.MustCompile(`(?i)javascript:`),
			regexp.MustCompile(`(?i)on\w+\s*=`),
			regexp.MustCompile(`(?i)data:text/html`),
		},
	}
}

// Suspicious 判断输入是否命中任一可疑模式。
func (cf *ContentFilter) Suspicious(input string) bool {
	for _, pattern := range cf.suspiciousPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}
