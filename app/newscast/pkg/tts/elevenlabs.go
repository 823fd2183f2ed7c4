// Package tts 文本转语音渲染
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/newscast/app/newscast/pkg/config"
	"github.com/iWorld-y/newscast/app/newscast/pkg/logger"
	"github.com/iWorld-y/newscast/app/newscast/pkg/model"
)

// ErrEmptyArtifact 渲染结果不存在或为空
var ErrEmptyArtifact = errors.New("audio artifact is missing or empty")

// ElevenLabs ElevenLabs 文本转语音客户端
type ElevenLabs struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewElevenLabs 创建客户端
func NewElevenLabs(c config.TTSConfig) *ElevenLabs {
	return &ElevenLabs{
		apiKey:  c.APIKey,
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		client:  &http.Client{Timeout: c.Timeout},
	}
}

type speechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// TextToAudio 渲染 script 并写入 outputDir/<uuid>.mp3，返回前确认文件存在且非空
func (e *ElevenLabs) TextToAudio(ctx context.Context, script, voiceID, modelID, format, outputDir string) (*model.AudioArtifact, error) {
	if strings.TrimSpace(script) == "" {
		return nil, errors.New("tts: script is empty")
	}
	if e.apiKey == "" {
		return nil, errors.New("tts: ELEVENLABS_API_KEY is not set")
	}

	body, err := json.Marshal(speechRequest{Text: script, ModelID: modelID})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		e.baseURL, url.PathEscape(voiceID), url.QueryEscape(format))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("tts api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outputDir, uuid.NewString()+".mp3")
	if err := writeFile(path, resp.Body); err != nil {
		return nil, err
	}

	artifact, err := Verify(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	logger.Log.Infof("音频已生成: %s (%d bytes, 耗时 %s)", artifact.Path, artifact.Size, time.Since(start).Round(time.Millisecond))
	return artifact, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write audio file: %w", err)
	}
	return f.Close()
}

// Verify 确认 path 为非空普通文件
func Verify(path string) (*model.AudioArtifact, error) {
	if path == "" {
		return nil, ErrEmptyArtifact
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEmptyArtifact, path)
		}
		return nil, err
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyArtifact, path)
	}
	return &model.AudioArtifact{Path: path, Size: info.Size()}, nil
}
