package news

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
)

// Cleaner 将原始页面（HTML 或 RSS/Atom）转换为按行分隔的纯文本
type Cleaner interface {
	Clean(pageURL, markup string) (string, error)
}

// NewCleaner 根据配置名称选择清洗方式
func NewCleaner(name string) (Cleaner, error) {
	switch name {
	case "", "markup":
		return MarkupCleaner{}, nil
	case "readability":
		return ReadabilityCleaner{}, nil
	default:
		return nil, fmt.Errorf("unknown cleaner: %s", name)
	}
}

var spaceRe = regexp.MustCompile(`[ \t\x{00a0}]+`)

// 块级元素结束处补换行，近似浏览器的分行效果
const blockSelector = "p, div, li, h1, h2, h3, h4, h5, h6, a, br, tr, td, article, section, header, footer, title"

// MarkupCleaner 订阅源输出条目标题，HTML 输出块级文本
type MarkupCleaner struct{}

// Clean implements Cleaner
func (MarkupCleaner) Clean(pageURL, markup string) (string, error) {
	if gofeed.DetectFeedType(strings.NewReader(markup)) != gofeed.FeedTypeUnknown {
		return cleanFeed(markup)
	}
	return cleanHTML(markup)
}

func cleanFeed(markup string) (string, error) {
	feed, err := gofeed.NewParser().ParseString(markup)
	if err != nil {
		return "", fmt.Errorf("parse feed: %w", err)
	}
	lines := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		lines = append(lines, item.Title)
	}
	return normalizeLines(strings.Join(lines, "\n")), nil
}

func cleanHTML(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, svg, iframe, template, head").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return normalizeLines(doc.Text()), nil
}

// ReadabilityCleaner 使用 readability 提取正文，适用于单篇文章页面
type ReadabilityCleaner struct{}

// Clean implements Cleaner
func (ReadabilityCleaner) Clean(pageURL, markup string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		u = &url.URL{Scheme: "https", Host: "localhost"}
	}
	article, err := readability.FromReader(strings.NewReader(markup), u)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}
	return normalizeLines(article.TextContent), nil
}

// normalizeLines 合并空白并去掉空行
func normalizeLines(text string) string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
