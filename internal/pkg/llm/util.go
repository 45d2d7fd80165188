package llm

import (
	"context"
	log "log/slog"
	"os"

	"github.com/tmc/langchaingo/llms"
)

func readPrompt(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error("failed to read prompt file", "file", file, "err", err)
		return ""
	}
	return string(data)
}

func (s *ResumeAnalyzer) fetchModel(ctx context.Context, systemPrompt string, userPrompt string, temp float64) (*llms.ContentResponse, error) {
	release, err := s.limiter.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}
	log.InfoContext(ctx, "requesting LLM", "model", s.model)

	opts := []llms.CallOption{llms.WithTemperature(temp)}
	if s.model != "" {
		opts = append(opts, llms.WithModel(s.model))
	}
	return s.client.GenerateContent(ctx, messages, opts...)
}
