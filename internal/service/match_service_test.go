package service

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/pkg/llm"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	res *llm.MatchResult
	err error
}

func (s *stubAnalyzer) MatchResume(context.Context, string, string) (*llm.MatchResult, error) {
	return s.res, s.err
}

func TestMatchResume(t *testing.T) {
	req := &dto.ResumeMatchDTO{Resume: "Go, MongoDB", JobDescription: "Backend engineer with Go"}

	t.Run("analyzer disabled", func(t *testing.T) {
		res, err := NewMatchService(nil).MatchResume(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, res.Available)
		assert.NotNil(t, res.MatchedSkills)
	})

	t.Run("analyzer failing", func(t *testing.T) {
		svc := NewMatchService(&stubAnalyzer{err: errors.New("timeout")})
		res, err := svc.MatchResume(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, res.Available)
	})

	t.Run("scored", func(t *testing.T) {
		svc := NewMatchService(&stubAnalyzer{res: &llm.MatchResult{
			Score:         82,
			Summary:       "Strong fit.",
			MatchedSkills: []string{"Go"},
			MissingSkills: []string{},
		}})
		res, err := svc.MatchResume(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, res.Available)
		assert.Equal(t, 82, res.Score)
		assert.Equal(t, []string{"Go"}, res.MatchedSkills)
	})

	t.Run("blank input", func(t *testing.T) {
		_, err := NewMatchService(nil).MatchResume(context.Background(), &dto.ResumeMatchDTO{Resume: " ", JobDescription: "x"})
		assert.ErrorIs(t, err, ErrParamInvalid)
	})
}
