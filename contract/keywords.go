package contract

import "regexp"

// 将关键词编译为全词匹配的正则，避免子串误命中（如"lie"命中"believe"）
func CompileKeywords(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return patterns
}

// 编译上下文增强模式
func CompilePatterns(exprs []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		patterns = append(patterns, regexp.MustCompile(e))
	}
	return patterns
}

// 统计文本命中的模式个数
func CountMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}
