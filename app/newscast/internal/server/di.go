package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/newscast/app/newscast/internal/service"
	"github.com/iWorld-y/newscast/app/newscast/pkg/engine"
	"github.com/iWorld-y/newscast/app/newscast/pkg/metrics"
)

// ProviderSet 是 newscast 服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Pipeline providers
	metrics.New,
	engine.NewLimiters,
	NewChatModels,
	NewNewsAggregator,
	NewSocialAggregator,
	NewSynthesizer,
	NewRenderer,
	NewEngine,
	wire.Bind(new(service.Pipeline), new(*engine.Engine)),

	// Service providers
	service.NewNewscastService,
)
