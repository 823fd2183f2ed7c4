package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
	"github.com/iWorld-y/newscast/app/newscast/pkg/ratelimit"
)

// ErrNoTopics 请求未包含任何主题
var ErrNoTopics = errors.New("no topics provided")

// NewsAggregator 新闻来源
type NewsAggregator interface {
	ScrapeNews(ctx context.Context, topics []model.Topic) (*model.AggregateReport, error)
}

// SocialAggregator 社交来源
type SocialAggregator interface {
	ScrapeRedditTopics(ctx context.Context, topics []model.Topic) (*model.AggregateReport, error)
}

// Synthesizer 播报稿合成
type Synthesizer interface {
	GenerateBroadcastNews(ctx context.Context, news, reddit *model.AggregateReport, topics []model.Topic) (model.BroadcastScript, error)
}

// Renderer 音频渲染
type Renderer interface {
	TextToAudio(ctx context.Context, script, voiceID, modelID, format, outputDir string) (*model.AudioArtifact, error)
}

// Limiters 进程级共享的外部依赖限流器
type Limiters struct {
	News   *ratelimit.Limiter
	Social *ratelimit.Limiter
}

// NewLimiters 按配置创建限流器，进程内只应调用一次
func NewLimiters(cfg *config.Config) *Limiters {
	return &Limiters{
		News:   ratelimit.New("news", cfg.News.Limit.MaxTokens, cfg.News.Limit.Period),
		Social: ratelimit.New("social", cfg.Social.Limit.MaxTokens, cfg.Social.Limit.Period),
	}
}

// Voice 音频渲染参数
type Voice struct {
	VoiceID   string
	ModelID   string
	Format    string
	OutputDir string
}

// VoiceFromConfig 从 TTS 配置读取渲染参数
func VoiceFromConfig(c config.TTSConfig) Voice {
	return Voice{VoiceID: c.VoiceID, ModelID: c.ModelID, Format: c.OutputFormat, OutputDir: c.OutputDir}
}

// Engine 请求编排：选择来源 -> 聚合 -> 合成 -> 渲染
type Engine struct {
	news     NewsAggregator
	social   SocialAggregator
	synth    Synthesizer
	renderer Renderer
	voice    Voice
	timeout  time.Duration
	metrics  *metrics.Metrics
}

// NewEngine 创建引擎实例；timeout 为单次运行的总时限，<=0 表示不限
func NewEngine(news NewsAggregator, social SocialAggregator, synth Synthesizer, renderer Renderer, voice Voice, timeout time.Duration, m *metrics.Metrics) *Engine {
	return &Engine{
		news:     news,
		social:   social,
		synth:    synth,
		renderer: renderer,
		voice:    voice,
		timeout:  timeout,
		metrics:  m,
	}
}

// RunOptions 运行选项
type RunOptions struct {
	Topics           []model.Topic
	Sources          model.SourceSelection
	ProgressCallback func(state State, progress int)
}

// Result 一次成功运行的产物
type Result struct {
	RunID    string
	News     *model.AggregateReport
	Reddit   *model.AggregateReport
	Script   model.BroadcastScript
	Artifact *model.AudioArtifact
}

// run 单次运行的状态
type run struct {
	id       string
	state    State
	progress int
	opts     RunOptions
	log      *logrus.Entry
}

func (r *run) enter(state State, progress int) {
	r.log.Debugf("状态 %s -> %s", r.state, state)
	r.state = state
	if progress >= 0 {
		r.progress = progress
	}
	if r.opts.ProgressCallback != nil {
		r.opts.ProgressCallback(state, r.progress)
	}
}

// Run 执行一次完整的生成流程。失败时返回 *StageError，错误信息可直接展示给调用方
func (e *Engine) Run(ctx context.Context, opts RunOptions) (res *Result, err error) {
	r := &run{id: uuid.NewString(), opts: opts}
	r.log = logger.Log.WithField("run_id", r.id)
	r.enter(StateReceived, 0)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if err != nil {
			se := asStageError(r.state, err)
			r.log.Errorf("运行失败 [%s]: %+v", se.Stage, se)
			r.enter(StateFailed, -1)
			e.metrics.RecordRequest(string(StateFailed))
			err = se
			return
		}
		e.metrics.RecordRequest(string(StateResponding))
	}()

	if len(opts.Topics) == 0 {
		return nil, ErrNoTopics
	}
	r.log.Infof("收到请求，主题: %v，来源: %s", opts.Topics, opts.Sources)
	r.enter(StateSourcesSelected, 5)

	res = &Result{RunID: r.id}

	r.enter(StateAggregating, 10)
	if err := e.stage(StateAggregating, func() (err error) {
		res.News, res.Reddit, err = e.aggregate(ctx, r)
		return err
	}); err != nil {
		return nil, err
	}

	r.enter(StateSynthesizing, 70)
	if err := e.stage(StateSynthesizing, func() (err error) {
		res.Script, err = e.synth.GenerateBroadcastNews(ctx, res.News, res.Reddit, opts.Topics)
		return err
	}); err != nil {
		return nil, err
	}
	r.log.Infof("播报稿生成完成，长度 %d 字符", len(res.Script))

	r.enter(StateRendering, 85)
	if err := e.stage(StateRendering, func() (err error) {
		res.Artifact, err = e.renderer.TextToAudio(ctx, res.Script, e.voice.VoiceID, e.voice.ModelID, e.voice.Format, e.voice.OutputDir)
		if err == nil && res.Artifact == nil {
			err = errors.New("audio file generation failed")
		}
		return err
	}); err != nil {
		return nil, err
	}

	r.enter(StateResponding, 100)
	return res, nil
}

func (e *Engine) stage(state State, fn func() error) error {
	start := time.Now()
	err := fn()
	e.metrics.ObserveStage(string(state), time.Since(start))
	return err
}

// aggregate 按来源选择并发运行聚合器，一方失败不会取消另一方
func (e *Engine) aggregate(ctx context.Context, r *run) (news, reddit *model.AggregateReport, err error) {
	news = model.NewAggregateReport(model.NewsAnalysisKey)
	reddit = model.NewAggregateReport(model.RedditAnalysisKey)

	sel := r.opts.Sources
	if !sel.IncludesNews() && !sel.IncludesReddit() {
		r.log.Warnf("未知的来源类型 %q，两份报告均为空", sel)
		return news, reddit, nil
	}

	var newsErr, redditErr error
	var g errgroup.Group
	if sel.IncludesNews() {
		g.Go(func() error {
			report, err := e.news.ScrapeNews(ctx, r.opts.Topics)
			if err != nil {
				newsErr = errors.Wrap(err, "news aggregation")
				r.log.Errorf("新闻聚合失败: %v", err)
				return newsErr
			}
			news = report
			r.log.Infof("新闻聚合完成，%d 个主题", report.Results.Len())
			return nil
		})
	}
	if sel.IncludesReddit() {
		g.Go(func() error {
			report, err := e.social.ScrapeRedditTopics(ctx, r.opts.Topics)
			if err != nil {
				redditErr = errors.Wrap(err, "reddit aggregation")
				r.log.Errorf("Reddit 聚合失败: %v", err)
				return redditErr
			}
			reddit = report
			r.log.Infof("Reddit 聚合完成，%d 个主题", report.Results.Len())
			return nil
		})
	}
	_ = g.Wait()

	// 两者都失败时优先报告新闻侧
	if newsErr != nil {
		return nil, nil, newsErr
	}
	if redditErr != nil {
		return nil, nil, redditErr
	}
	return news, reddit, nil
}

// Describe 便于日志输出的简短描述
func (res *Result) Describe() string {
	if res == nil || res.Artifact == nil {
		return "<nil>"
	}
	return fmt.Sprintf("run=%s audio=%s size=%d", res.RunID, res.Artifact.Path, res.Artifact.Size)
}
