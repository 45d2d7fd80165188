package dto

// ResumeMatchDTO 简历匹配请求
type ResumeMatchDTO struct {
	Resume         string `json:"resume" binding:"required" validate:"max=20000"`
	JobDescription string `json:"jobDescription" binding:"required" validate:"max=20000"`
}

// ResumeMatchResultDTO 匹配结果，AI 不可用时 Available=false
type ResumeMatchResultDTO struct {
	Available     bool     `json:"available"`
	Score         int      `json:"score"`
	Summary       string   `json:"summary"`
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
}
