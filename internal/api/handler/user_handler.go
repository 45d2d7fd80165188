package handler

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/pkg/response"
	"Alumnet/internal/pkg/util"
	"Alumnet/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
}

func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

func (s *UserHandler) Register(c *gin.Context) {
	var registerDTO dto.RegisterDTO
	err := c.ShouldBindJSON(&registerDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&registerDTO); err != nil {
		response.Error(c, err)
		return
	}
	info, err := s.userSvc.Register(c.Request.Context(), &registerDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}

func (s *UserHandler) Login(c *gin.Context) {
	var loginDTO dto.LoginDTO
	err := c.ShouldBindJSON(&loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := s.userSvc.Login(c.Request.Context(), &loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, token)
}

func (s *UserHandler) Logout(c *gin.Context) {
	token := c.GetString("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	err := s.userSvc.Logout(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) GetUserInfo(c *gin.Context) {
	userDTO, err := s.userSvc.GetUserInfo(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, userDTO)
}

func (s *UserHandler) UpdateUserInfo(c *gin.Context) {
	var updateDTO dto.UpdateUserDTO
	err := c.ShouldBindJSON(&updateDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err = util.ValidateDTO(&updateDTO); err != nil {
		response.Error(c, err)
		return
	}
	userDTO, err := s.userSvc.UpdateUserInfo(c.Request.Context(), c.GetString("user_id"), &updateDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, userDTO)
}

func (s *UserHandler) GetUserSimpleInfo(c *gin.Context) {
	user, err := s.userSvc.GetUserSimpleInfo(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// VerifyUser 管理员审核
func (s *UserHandler) VerifyUser(c *gin.Context) {
	var verifyDTO dto.VerifyUserDTO
	err := c.ShouldBindJSON(&verifyDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	err = s.userSvc.VerifyUser(c.Request.Context(), c.Param("userId"), *verifyDTO.Verified)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil || file == nil {
		response.Fail(c, response.BadRequest, service.ErrParamInvalid.Error())
		return
	}
	if file.Size > consts.MaxAvatarSize {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		response.Error(c, service.ErrFileNotSupported)
		return
	}

	url, err := s.userSvc.UploadAvatar(c.Request.Context(), c.GetString("user_id"), reader, file.Size, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]string{
		"avatarUrl": url,
	})
}
