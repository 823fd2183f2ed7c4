package news

import (
	"strings"
	"unicode/utf8"
)

// HeadlineExtractor 从纯文本中挑选标题行
type HeadlineExtractor interface {
	Extract(text string) []string
}

// LineExtractor 以行长度与词数过滤标题，去重并限制数量
type LineExtractor struct {
	Max      int
	MinRunes int
	MaxRunes int
	MinWords int
}

// NewLineExtractor 使用默认阈值
func NewLineExtractor(max int) *LineExtractor {
	if max <= 0 {
		max = 10
	}
	return &LineExtractor{Max: max, MinRunes: 20, MaxRunes: 220, MinWords: 4}
}

// 常见的页面噪声
var boilerplate = []string{
	"cookie",
	"privacy policy",
	"terms of service",
	"sign in",
	"subscribe",
	"all rights reserved",
	"javascript",
	"skip to content",
}

// Extract implements HeadlineExtractor
func (e *LineExtractor) Extract(text string) []string {
	seen := make(map[string]struct{})
	var headlines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !e.looksLikeHeadline(line) {
			continue
		}
		key := strings.ToLower(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		headlines = append(headlines, line)
		if len(headlines) >= e.Max {
			break
		}
	}
	return headlines
}

func (e *LineExtractor) looksLikeHeadline(line string) bool {
	n := utf8.RuneCountInString(line)
	if n < e.MinRunes || n > e.MaxRunes {
		return false
	}
	if len(strings.Fields(line)) < e.MinWords {
		return false
	}
	if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
		return false
	}
	lower := strings.ToLower(line)
	for _, b := range boilerplate {
		if strings.Contains(lower, b) {
			return false
		}
	}
	return true
}
