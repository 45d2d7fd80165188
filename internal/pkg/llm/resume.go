package llm

import (
	"context"
	"errors"
	log "log/slog"
	"strings"

	"github.com/goccy/go-json"
)

const defaultMatchPrompt = `Compare the resume with the job description. Reply with one JSON object only:
{"score": <integer 0-100>, "summary": "<two sentences>", "matchedSkills": ["..."], "missingSkills": ["..."]}`

// MatchResult 简历匹配结果
type MatchResult struct {
	Score         int      `json:"score"`
	Summary       string   `json:"summary"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
}

type matchPayload struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

// MatchResume 对简历与职位描述打分
func (s *ResumeAnalyzer) MatchResume(ctx context.Context, resume, jobDescription string) (*MatchResult, error) {
	payload, err := json.Marshal(&matchPayload{Resume: resume, JobDescription: jobDescription})
	if err != nil {
		return nil, err
	}

	resp, err := s.fetchModel(ctx, s.matchPrompt, string(payload), 0.1)
	if err != nil {
		log.ErrorContext(ctx, "resume match LLM request failed", "err", err)
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("resume match LLM returned no choices")
	}

	result, err := ParseMatchResult(resp.Choices[0].Content)
	if err != nil {
		log.ErrorContext(ctx, "resume match LLM response unparsable", "err", err)
		return nil, err
	}
	return result, nil
}

// ParseMatchResult 解析模型输出，兼容 ```json 代码块包裹
func ParseMatchResult(s string) (*MatchResult, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var res MatchResult
	if err := json.Unmarshal([]byte(cleaned), &res); err != nil {
		return nil, err
	}

	if res.Score < 0 {
		res.Score = 0
	}
	if res.Score > 100 {
		res.Score = 100
	}
	if res.MatchedSkills == nil {
		res.MatchedSkills = []string{}
	}
	if res.MissingSkills == nil {
		res.MissingSkills = []string{}
	}
	return &res, nil
}
