package llm

import (
	"Alumnet/internal/api/config"
	"Alumnet/internal/pkg/logger"
	log "log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ResumeAnalyzer 基于大模型的简历匹配
type ResumeAnalyzer struct {
	client      llms.Model
	model       string
	matchPrompt string
	limiter     *limiter
}

func InitLLM(cfg config.LLMConfig) (*ResumeAnalyzer, error) {
	httpClient := &http.Client{
		Timeout:   60 * time.Second,
		Transport: logger.NewHTTPTransport("llm"),
	}

	client, err := openai.New(
		openai.WithModel(cfg.TextModel),
		openai.WithToken(cfg.ApiKey),
		openai.WithBaseURL(cfg.URL),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		log.Error("LLM client init failed", "err", err)
		return nil, err
	}

	promptsPath := cfg.PromptsPath
	if promptsPath == "" {
		promptsPath = "./prompts"
	}

	analyzer := NewResumeAnalyzer(client, cfg.TextModel, readPrompt(filepath.Join(promptsPath, "resume-match.txt")))
	analyzer.limiter = newLimiter(int64(cfg.MaxConcurrency), defaultQueueWait)
	return analyzer, nil
}

func NewResumeAnalyzer(client llms.Model, model, matchPrompt string) *ResumeAnalyzer {
	if matchPrompt == "" {
		matchPrompt = defaultMatchPrompt
	}
	return &ResumeAnalyzer{
		client:      client,
		model:       model,
		matchPrompt: matchPrompt,
		limiter:     newLimiter(DefaultMaxConcurrency, defaultQueueWait),
	}
}
