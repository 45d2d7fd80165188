package dto

import "time"

// RegisterDTO 注册
type RegisterDTO struct {
	Email          string `json:"email" binding:"required" validate:"email,max=254"`
	Password       string `json:"password" binding:"required" validate:"min=6,max=64"`
	FullName       string `json:"fullName" binding:"required" validate:"min=1,max=60"`
	Role           string `json:"role" binding:"required"`
	GraduationYear int    `json:"graduationYear" validate:"omitempty,min=1900,max=2100"`
	Headline       string `json:"headline" validate:"max=120"`
}

// LoginDTO 登录凭证
type LoginDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenDTO 登录结果
type TokenDTO struct {
	Token string       `json:"token"`
	User  *UserInfoDTO `json:"user"`
}

// UpdateUserDTO 修改资料，空字段不修改
type UpdateUserDTO struct {
	FullName       *string `json:"fullName" validate:"omitempty,min=1,max=60"`
	Headline       *string `json:"headline" validate:"omitempty,max=120"`
	Company        *string `json:"company" validate:"omitempty,max=120"`
	Bio            *string `json:"bio" validate:"omitempty,max=1000"`
	GraduationYear *int    `json:"graduationYear" validate:"omitempty,min=1900,max=2100"`
}

// UserInfoDTO 当前用户资料
type UserInfoDTO struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"fullName"`
	Role           string    `json:"role"`
	IsVerified     bool      `json:"isVerified"`
	Headline       string    `json:"headline,omitempty"`
	Company        string    `json:"company,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	AvatarURL      string    `json:"avatarUrl"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserSimpleDTO 公开身份
type UserSimpleDTO struct {
	ID         string `json:"id"`
	FullName   string `json:"fullName"`
	AvatarURL  string `json:"avatarUrl"`
	Headline   string `json:"headline,omitempty"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

// VerifyUserDTO 管理员审核
type VerifyUserDTO struct {
	Verified *bool `json:"verified" binding:"required"`
}
