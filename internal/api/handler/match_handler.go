package handler

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/pkg/response"
	"Alumnet/internal/pkg/util"
	"Alumnet/internal/service"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchSvc service.MatchService
}

func NewMatchHandler(matchSvc service.MatchService) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc}
}

// MatchResume 简历与职位匹配打分
func (s *MatchHandler) MatchResume(c *gin.Context) {
	var req dto.ResumeMatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Error(c, err)
		return
	}

	res, err := s.matchSvc.MatchResume(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
