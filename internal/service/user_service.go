package service

import (
	"Alumnet/internal/api/dto"
	"Alumnet/internal/model"
	"Alumnet/internal/pkg/consts"
	"Alumnet/internal/pkg/redis"
	"Alumnet/internal/pkg/security"
	"Alumnet/internal/repository"
	"context"
	"errors"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const simpleInfoTTL = time.Hour

// AvatarStorage 头像对象存储
type AvatarStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	DeleteFile(ctx context.Context, objectName string) error
	GetPublicURL(objectName string) string
}

type UserService interface {
	Register(ctx context.Context, regDTO *dto.RegisterDTO) (*dto.UserInfoDTO, error)
	Login(ctx context.Context, loginDTO *dto.LoginDTO) (*dto.TokenDTO, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, id string) (*dto.UserInfoDTO, error)
	UpdateUserInfo(ctx context.Context, id string, updateDTO *dto.UpdateUserDTO) (*dto.UserInfoDTO, error)
	UploadAvatar(ctx context.Context, id string, reader io.Reader, size int64, contentType string) (string, error)
	GetUserSimpleInfo(ctx context.Context, id string) (*dto.UserSimpleDTO, error)
	GetUserSimpleInfos(ctx context.Context, ids []string) (map[string]*dto.UserSimpleDTO, error)
	VerifyUser(ctx context.Context, id string, verified bool) error
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
	kv       redis.KV
	storage  AvatarStorage
}

func NewUserService(userRepo repository.UserRepo, kv redis.KV, storage AvatarStorage) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		kv:       kv,
		storage:  storage,
	}
}

var objectIDConverter = copier.TypeConverter{
	SrcType: primitive.ObjectID{},
	DstType: copier.String,
	Fn: func(src interface{}) (interface{}, error) {
		return src.(primitive.ObjectID).Hex(), nil
	},
}

// Register 注册，学生或校友身份，邮箱唯一
func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) (*dto.UserInfoDTO, error) {
	role := strings.ToUpper(strings.TrimSpace(regDTO.Role))
	if !model.IsSelfAssignable(role) {
		return nil, ErrRoleInvalid
	}
	email := normalizeEmail(regDTO.Email)

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		log.ErrorContext(ctx, "get user by email failed", "err", err)
		return nil, UnExpectedError
	}
	if existing != nil {
		return nil, ErrUserExist
	}

	hashed, err := security.HashPassword(regDTO.Password)
	if err != nil {
		return nil, ErrParamInvalid
	}

	user := &model.User{}
	if err = copier.Copy(user, regDTO); err != nil {
		return nil, UnExpectedError
	}
	now := time.Now()
	user.ID = primitive.NewObjectID()
	user.Email = email
	user.Password = hashed
	user.Role = role
	user.FullName = strings.TrimSpace(regDTO.FullName)
	user.CreatedAt = now
	user.UpdatedAt = now

	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExist
		}
		log.ErrorContext(ctx, "create user failed", "err", err)
		return nil, UnExpectedError
	}

	log.InfoContext(ctx, "user registered", "userID", user.ID.Hex(), "role", role)
	return s.toUserInfoDTO(user)
}

// Login 邮箱密码登录，签发 Token
func (s *UserServiceImpl) Login(ctx context.Context, loginDTO *dto.LoginDTO) (*dto.TokenDTO, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(loginDTO.Email))
	if err != nil {
		log.ErrorContext(ctx, "get user by email failed", "err", err)
		return nil, UnExpectedError
	}
	if user == nil {
		return nil, ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(loginDTO.Password, user.Password); err != nil {
		if !errors.Is(err, security.ErrInvalidCredentials) {
			log.WarnContext(ctx, "password check failed", "user_id", user.ID.Hex(), "err", err)
		}
		return nil, ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(user.ID.Hex(), user.FullName, user.Role)
	if err != nil {
		log.ErrorContext(ctx, "generate token failed", "err", err)
		return nil, UnExpectedError
	}

	info, err := s.toUserInfoDTO(user)
	if err != nil {
		return nil, err
	}
	return &dto.TokenDTO{Token: token, User: info}, nil
}

// Logout 将 Token 签名加入黑名单直到其过期
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	claims, err := security.ValidateToken(token)
	if err != nil {
		return nil
	}
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return ErrParamInvalid
	}
	ttl := security.RemainingLifetime(claims)
	if ttl <= 0 {
		return nil
	}
	if err = s.kv.SetWithExpiration(ctx, consts.TokenBlacklistKey+signature, "1", ttl); err != nil {
		log.ErrorContext(ctx, "blacklist token failed", "err", err)
		return UnExpectedError
	}
	return nil
}

// GetUserInfo 获取当前用户资料
func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id string) (*dto.UserInfoDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "get user failed", "userID", id, "err", err)
		return nil, UnExpectedError
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.toUserInfoDTO(user)
}

// UpdateUserInfo 修改资料并使公开身份缓存失效
func (s *UserServiceImpl) UpdateUserInfo(ctx context.Context, id string, updateDTO *dto.UpdateUserDTO) (*dto.UserInfoDTO, error) {
	fields := bson.M{}
	if updateDTO.FullName != nil {
		name := strings.TrimSpace(*updateDTO.FullName)
		if name == "" {
			return nil, ErrParamInvalid
		}
		fields["full_name"] = name
	}
	if updateDTO.Headline != nil {
		fields["headline"] = strings.TrimSpace(*updateDTO.Headline)
	}
	if updateDTO.Company != nil {
		fields["company"] = strings.TrimSpace(*updateDTO.Company)
	}
	if updateDTO.Bio != nil {
		fields["bio"] = *updateDTO.Bio
	}
	if updateDTO.GraduationYear != nil {
		fields["graduation_year"] = *updateDTO.GraduationYear
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateProfile(ctx, id, fields); err != nil {
			log.ErrorContext(ctx, "update profile failed", "userID", id, "err", err)
			return nil, UnExpectedError
		}
		s.invalidateSimpleInfo(ctx, id)
	}
	return s.GetUserInfo(ctx, id)
}

// UploadAvatar 上传头像，返回公开访问地址
func (s *UserServiceImpl) UploadAvatar(ctx context.Context, id string, reader io.Reader, size int64, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, consts.MimePrefixImage) || size <= 0 || size > consts.MaxAvatarSize {
		return "", ErrFileNotSupported
	}

	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		log.ErrorContext(ctx, "get user failed", "userID", id, "err", err)
		return "", UnExpectedError
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	objectName := consts.AvatarPrefix + id + "/" + uuid.NewString()
	key, err := s.storage.UploadFile(ctx, objectName, reader, size, contentType)
	if err != nil {
		log.ErrorContext(ctx, "upload avatar failed", "userID", id, "err", err)
		return "", UnExpectedError
	}

	if err = s.userRepo.UpdateAvatar(ctx, id, key); err != nil {
		_ = s.storage.DeleteFile(ctx, key)
		log.ErrorContext(ctx, "update avatar failed", "userID", id, "err", err)
		return "", UnExpectedError
	}
	if user.AvatarKey != "" {
		if err = s.storage.DeleteFile(ctx, user.AvatarKey); err != nil {
			log.WarnContext(ctx, "delete old avatar failed", "key", user.AvatarKey, "err", err)
		}
	}
	s.invalidateSimpleInfo(ctx, id)

	return s.avatarURL(key), nil
}

// GetUserSimpleInfo 公开身份
func (s *UserServiceImpl) GetUserSimpleInfo(ctx context.Context, id string) (*dto.UserSimpleDTO, error) {
	infos, err := s.GetUserSimpleInfos(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	info, ok := infos[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return info, nil
}

// GetUserSimpleInfos 批量获取公开身份，优先读缓存，未命中回源后回填
func (s *UserServiceImpl) GetUserSimpleInfos(ctx context.Context, ids []string) (map[string]*dto.UserSimpleDTO, error) {
	result := make(map[string]*dto.UserSimpleDTO, len(ids))
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return result, nil
	}

	keys := make([]string, len(unique))
	for i, id := range unique {
		keys[i] = consts.UserSimpleInfoKey + id
	}

	missing := unique
	values, err := s.kv.MGetValues(ctx, keys...)
	if err != nil {
		log.WarnContext(ctx, "read simple info cache failed", "err", err)
	} else {
		missing = make([]string, 0, len(unique))
		for i, value := range values {
			if value == "" {
				missing = append(missing, unique[i])
				continue
			}
			info := &dto.UserSimpleDTO{}
			if err = json.Unmarshal([]byte(value), info); err != nil {
				missing = append(missing, unique[i])
				continue
			}
			result[unique[i]] = info
		}
	}

	if len(missing) == 0 {
		return result, nil
	}

	users, err := s.userRepo.GetUserByIds(ctx, missing)
	if err != nil {
		log.ErrorContext(ctx, "get users by ids failed", "err", err)
		return nil, UnExpectedError
	}
	for _, user := range users {
		info := s.toUserSimpleDTO(user)
		result[info.ID] = info

		if raw, err := json.Marshal(info); err == nil {
			if err = s.kv.SetWithExpiration(ctx, consts.UserSimpleInfoKey+info.ID, string(raw), simpleInfoTTL); err != nil {
				log.WarnContext(ctx, "write simple info cache failed", "userID", info.ID, "err", err)
			}
		}
	}
	return result, nil
}

// VerifyUser 管理员审核身份
func (s *UserServiceImpl) VerifyUser(ctx context.Context, id string, verified bool) error {
	ok, err := s.userRepo.UpdateVerified(ctx, id, verified)
	if err != nil {
		log.ErrorContext(ctx, "update verified failed", "userID", id, "err", err)
		return UnExpectedError
	}
	if !ok {
		return ErrUserNotFound
	}
	s.invalidateSimpleInfo(ctx, id)
	return nil
}

func (s *UserServiceImpl) invalidateSimpleInfo(ctx context.Context, id string) {
	if err := s.kv.DeleteKey(ctx, consts.UserSimpleInfoKey+id); err != nil {
		log.WarnContext(ctx, "invalidate simple info cache failed", "userID", id, "err", err)
	}
}

func (s *UserServiceImpl) avatarURL(key string) string {
	if s.storage == nil {
		return ""
	}
	if key == "" {
		key = consts.DefaultAvatarURL
	}
	return s.storage.GetPublicURL(key)
}

func (s *UserServiceImpl) toUserInfoDTO(user *model.User) (*dto.UserInfoDTO, error) {
	info := &dto.UserInfoDTO{}
	if err := copier.CopyWithOption(info, user, copier.Option{Converters: []copier.TypeConverter{objectIDConverter}}); err != nil {
		return nil, UnExpectedError
	}
	info.AvatarURL = s.avatarURL(user.AvatarKey)
	return info, nil
}

func (s *UserServiceImpl) toUserSimpleDTO(user *model.User) *dto.UserSimpleDTO {
	return &dto.UserSimpleDTO{
		ID:         user.ID.Hex(),
		FullName:   user.FullName,
		AvatarURL:  s.avatarURL(user.AvatarKey),
		Headline:   user.Headline,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
