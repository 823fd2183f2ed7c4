package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/engine"
	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 是服务的名称
	Name string = "newscast"
	// Version 是服务的版本号
	Version string
	// flagconf 是配置文件的路径命令行参数
	flagconf string
	// flagtopics 非空时只生成一次音频并退出，不启动 HTTP 服务
	flagtopics string
	flagsource string
	flagout    string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "app/newscast/configs/config.yaml", "config path, eg: -conf config.yaml")
	flag.StringVar(&flagtopics, "topics", "", "comma separated topics for a one-shot run, eg: -topics \"Bitcoin,AI\"")
	flag.StringVar(&flagsource, "source", "both", "source type for a one-shot run: news, reddit or both")
	flag.StringVar(&flagout, "out", "news-summary.mp3", "output file for a one-shot run")
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置文件: %v\n", err)
		os.Exit(1)
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "无法初始化日志: %v\n", err)
		os.Exit(1)
	}
	checkCredentials(cfg)

	kl := log.With(logger.NewKratosLogger(),
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	if flagtopics != "" {
		if err := runOnce(cfg, kl); err != nil {
			logger.Log.Fatalf("生成失败: %v", err)
		}
		return
	}

	app, cleanup, err := initApp(cfg, kl)
	if err != nil {
		logger.Log.Fatalf("初始化失败: %v", err)
	}
	defer cleanup()

	logger.Log.Infof("newscast 启动，监听 %s", cfg.Server.HTTP.Addr)
	if err := app.Run(); err != nil {
		logger.Log.Fatalf("服务异常退出: %v", err)
	}
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}

// runOnce 命令行模式：跑一次完整流程并把音频复制到 -out
func runOnce(cfg *config.Config, kl log.Logger) error {
	eng, cleanup, err := initEngine(cfg, kl)
	if err != nil {
		return err
	}
	defer cleanup()

	var topics []model.Topic
	for _, t := range strings.Split(flagtopics, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	sel := model.SourceSelection(flagsource)
	if !sel.Valid() {
		return fmt.Errorf("invalid -source %q", flagsource)
	}

	res, err := eng.Run(context.Background(), engine.RunOptions{
		Topics:  topics,
		Sources: sel,
		ProgressCallback: func(state engine.State, progress int) {
			logger.Log.Infof("[%3d%%] %s", progress, state)
		},
	})
	if err != nil {
		return err
	}
	if err := copyFile(res.Artifact.Path, flagout); err != nil {
		return err
	}
	logger.Log.Infof("音频已保存到 %s", flagout)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// checkCredentials 缺少密钥不阻止启动，但对应阶段会在运行时失败
func checkCredentials(cfg *config.Config) {
	missing := map[string]string{
		"OPENROUTER_API_KEY":   cfg.LLM.APIKey,
		"BRIGHTDATA_API_TOKEN": cfg.News.Fetcher.BrightData.APIToken,
		"ELEVENLABS_API_KEY":   cfg.TTS.APIKey,
	}
	for _, name := range []string{"OPENROUTER_API_KEY", "BRIGHTDATA_API_TOKEN", "ELEVENLABS_API_KEY"} {
		if missing[name] == "" {
			logger.Log.Warnf("未设置 %s", name)
		}
	}
}
