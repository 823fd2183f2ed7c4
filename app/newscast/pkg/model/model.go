package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Topic 调用方提供的研究主题
type Topic = string

// SourceSelection 单次请求选择的数据来源
type SourceSelection string

const (
	SourceNews   SourceSelection = "news"
	SourceReddit SourceSelection = "reddit"
	SourceBoth   SourceSelection = "both"
)

// IncludesNews 是否需要运行新闻聚合
func (s SourceSelection) IncludesNews() bool {
	return s == SourceNews || s == SourceBoth
}

// IncludesReddit 是否需要运行社交聚合
func (s SourceSelection) IncludesReddit() bool {
	return s == SourceReddit || s == SourceBoth
}

// Valid 是否为已定义的枚举值
func (s SourceSelection) Valid() bool {
	switch s {
	case SourceNews, SourceReddit, SourceBoth:
		return true
	}
	return false
}

// 报告在合成阶段使用的固定键
const (
	NewsAnalysisKey   = "news_analysis"
	RedditAnalysisKey = "reddit_analysis"
)

// 单个主题的软失败占位文本
const (
	NoURLPlaceholder       = "Error: No URL found."
	NoHeadlinesPlaceholder = "No headlines found."
	RedditErrorPlaceholder = "Error retrieving Reddit data."
)

// ErrorPlaceholder 将单个主题的异常转换为占位文本
func ErrorPlaceholder(err error) string {
	return fmt.Sprintf("Error: %v", err)
}

// PerTopicResult 主题 -> 分析结果（或占位文本），保持主题首次出现的顺序
type PerTopicResult struct {
	order  []Topic
	values map[Topic]string
}

// NewPerTopicResult 创建空结果集
func NewPerTopicResult() *PerTopicResult {
	return &PerTopicResult{values: make(map[Topic]string)}
}

// Set 记录主题结果；重复主题保留原位置并覆盖取值
func (r *PerTopicResult) Set(topic Topic, value string) {
	if _, ok := r.values[topic]; !ok {
		r.order = append(r.order, topic)
	}
	r.values[topic] = value
}

// Get 读取主题结果
func (r *PerTopicResult) Get(topic Topic) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[topic]
	return v, ok
}

// Topics 按记录顺序返回主题
func (r *PerTopicResult) Topics() []Topic {
	if r == nil {
		return nil
	}
	out := make([]Topic, len(r.order))
	copy(out, r.order)
	return out
}

// Len 结果条数
func (r *PerTopicResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// MarshalJSON 以插入顺序输出 JSON 对象
func (r *PerTopicResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, topic := range r.Topics() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(topic)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[topic])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AggregateReport 单一来源的聚合报告
type AggregateReport struct {
	Key     string
	Results *PerTopicResult
}

// NewAggregateReport 创建带固定键的空报告
func NewAggregateReport(key string) *AggregateReport {
	return &AggregateReport{Key: key, Results: NewPerTopicResult()}
}

// Empty 报告为空或不存在
func (a *AggregateReport) Empty() bool {
	return a == nil || a.Results.Len() == 0
}

// MarshalJSON 输出 {"<key>": {...}}
func (a *AggregateReport) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	results := a.Results
	if results == nil {
		results = NewPerTopicResult()
	}
	return json.Marshal(map[string]*PerTopicResult{a.Key: results})
}

// BroadcastScript 合成后的播报稿
type BroadcastScript = string

// AudioArtifact 已渲染的音频文件
type AudioArtifact struct {
	Path string
	Size int64
}
