package service

import (
	"context"
	"os"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/engine"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
)

// 422 不在 kratos 预置的错误构造函数中
const codeUnprocessable = 422

// Pipeline 一次完整的生成流程
type Pipeline interface {
	Run(ctx context.Context, opts engine.RunOptions) (*engine.Result, error)
}

// GenerateRequest POST /generate-news-audio 的请求体
type GenerateRequest struct {
	Topics     []string `json:"topics" validate:"required,min=1,dive,notblank"`
	SourceType string   `json:"source_type" validate:"required,oneof=news reddit both"`
}

// NewscastService 新闻音频生成服务
type NewscastService struct {
	pipeline  Pipeline
	validator *Validator
	keepFiles bool
	log       *log.Helper
}

// NewNewscastService 创建服务
func NewNewscastService(p Pipeline, c *config.Config, logger log.Logger) *NewscastService {
	return &NewscastService{
		pipeline:  p,
		validator: NewValidator(),
		keepFiles: c.TTS.KeepFiles,
		log:       log.NewHelper(logger),
	}
}

// GenerateNewsAudio 处理生成请求，成功时以 audio/mpeg 返回音频字节
func (s *NewscastService) GenerateNewsAudio(ctx http.Context) error {
	var req GenerateRequest
	if err := ctx.Bind(&req); err != nil {
		return errors.New(codeUnprocessable, "INVALID_BODY", errors.FromError(err).Message)
	}
	if err := s.validator.Validate(&req); err != nil {
		return errors.New(codeUnprocessable, "VALIDATION_FAILED", err.Error())
	}

	h := ctx.Middleware(func(c context.Context, in interface{}) (interface{}, error) {
		r := in.(*GenerateRequest)
		return s.pipeline.Run(c, engine.RunOptions{
			Topics:  r.Topics,
			Sources: model.SourceSelection(r.SourceType),
		})
	})
	out, err := h(ctx, &req)
	if err != nil {
		return errors.InternalServer("PIPELINE_FAILED", err.Error()).WithCause(err)
	}
	res := out.(*engine.Result)
	s.log.Infof("生成完成: %s", res.Describe())

	f, err := os.Open(res.Artifact.Path)
	if err != nil {
		return errors.InternalServer("AUDIO_UNAVAILABLE", "Audio file generation failed").WithCause(err)
	}
	defer func() {
		f.Close()
		if !s.keepFiles {
			if err := os.Remove(res.Artifact.Path); err != nil {
				s.log.Warnf("删除音频文件失败 %s: %v", res.Artifact.Path, err)
			}
		}
	}()

	ctx.Response().Header().Set("Content-Disposition", "attachment; filename=news-summary.mp3")
	return ctx.Stream(200, "audio/mpeg", f)
}

// Healthz 存活检查
func (s *NewscastService) Healthz(ctx http.Context) error {
	return ctx.JSON(200, map[string]string{"status": "ok"})
}
