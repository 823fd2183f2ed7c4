//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final binary.

package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/iWorld-y/newscast/app/newscast/internal/server"
	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/engine"
)

// initApp init kratos application.
func initApp(*config.Config, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		newApp,
	))
}

// initEngine 命令行模式只需要编排引擎
func initEngine(*config.Config, log.Logger) (*engine.Engine, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
	))
}
