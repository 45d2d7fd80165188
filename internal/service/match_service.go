package service

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/pkg/llm"
	"context"
	log "log/slog"
	"strings"
)

// ResumeAnalyzer 外部 AI 打分
type ResumeAnalyzer interface {
	MatchResume(ctx context.Context, resume, jobDescription string) (*llm.MatchResult, error)
}

type MatchService interface {
	MatchResume(ctx context.Context, matchDTO *dto.ResumeMatchDTO) (*dto.ResumeMatchResultDTO, error)
}

type matchServiceImpl struct {
	analyzer ResumeAnalyzer
}

func NewMatchService(analyzer ResumeAnalyzer) MatchService {
	return &matchServiceImpl{analyzer: analyzer}
}

// MatchResume AI 不可用时返回 available=false，而不是报错
func (s *matchServiceImpl) MatchResume(ctx context.Context, matchDTO *dto.ResumeMatchDTO) (*dto.ResumeMatchResultDTO, error) {
	resume := strings.TrimSpace(matchDTO.Resume)
	jd := strings.TrimSpace(matchDTO.JobDescription)
	if resume == "" || jd == "" {
		return nil, ErrParamInvalid
	}

	unavailable := &dto.ResumeMatchResultDTO{
		Available:     false,
		MatchedSkills: []string{},
		MissingSkills: []string{},
	}
	if s.analyzer == nil {
		return unavailable, nil
	}

	res, err := s.analyzer.MatchResume(ctx, resume, jd)
	if err != nil {
		log.WarnContext(ctx, "resume match unavailable", "err", err)
		return unavailable, nil
	}

	return &dto.ResumeMatchResultDTO{
		Available:     true,
		Score:         res.Score,
		Summary:       res.Summary,
		MatchedSkills: res.MatchedSkills,
		MissingSkills: res.MissingSkills,
	}, nil
}
