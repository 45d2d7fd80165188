package repository

import (
	"Alumnet/internal/model"
	mongoPkg "Alumnet/internal/pkg/mongo"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserById(ctx context.Context, id string) (*model.User, error)
	GetUserByIds(ctx context.Context, ids []string) ([]*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, id string, fields bson.M) error
	UpdateAvatar(ctx context.Context, id string, avatarKey string) error
	UpdateVerified(ctx context.Context, id string, verified bool) (bool, error)
}

type userRepoImpl struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepoImpl{
		col: db.Collection(mongoPkg.UserCollection),
	}
}

// CreateUser email 唯一索引冲突时返回 mongo 重复键错误
func (s *userRepoImpl) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, user)
	return err
}

// GetUserById 不存在或 ID 非法时返回 nil
func (s *userRepoImpl) GetUserById(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *userRepoImpl) GetUserByIds(ctx context.Context, ids []string) ([]*model.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	users := make([]*model.User, 0, len(oids))
	if len(oids) == 0 {
		return users, nil
	}

	cursor, err := s.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userRepoImpl) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// UpdateProfile 只更新传入的字段
func (s *userRepoImpl) UpdateProfile(ctx context.Context, id string, fields bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	set := bson.M{"updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}
	_, err = s.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	return err
}

func (s *userRepoImpl) UpdateAvatar(ctx context.Context, id string, avatarKey string) error {
	return s.UpdateProfile(ctx, id, bson.M{"avatar_key": avatarKey})
}

// UpdateVerified 返回用户是否存在
func (s *userRepoImpl) UpdateVerified(ctx context.Context, id string, verified bool) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"is_verified": verified, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *userRepoImpl) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := s.col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
