package server

import (
	"context"
	"encoding/json"
	nethttp "net/http"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/newscast/app/newscast/internal/service"
	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
)

// NewHTTPServer 创建 HTTP 服务并注册路由
func NewHTTPServer(c *config.Config, s *service.NewscastService, m *metrics.Metrics, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(recovery.WithHandler(func(ctx context.Context, req, err interface{}) error {
				log.NewHelper(logger).Errorf("请求处理 panic: %v", err)
				return recovery.ErrUnknownRequest
			})),
		),
		http.ErrorEncoder(DetailErrorEncoder),
	}
	if c.Server.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.Server.HTTP.Addr))
	}
	if c.Server.HTTP.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Server.HTTP.Timeout))
	}

	srv := http.NewServer(opts...)

	r := srv.Route("/")
	r.POST("/generate-news-audio", s.GenerateNewsAudio)
	r.GET("/healthz", s.Healthz)

	srv.Handle("/metrics", m.Handler())
	return srv
}

// DetailErrorEncoder 以 {"detail": "<message>"} 输出错误，状态码取自 kratos 错误
func DetailErrorEncoder(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	se := errors.FromError(err)
	body, _ := json.Marshal(map[string]string{"detail": se.Message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(int(se.Code))
	_, _ = w.Write(body)
}
