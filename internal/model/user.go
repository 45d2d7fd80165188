package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Email          string             `bson:"email"`
	Password       string             `bson:"password"`
	FullName       string             `bson:"full_name"`
	Role           string             `bson:"role"`
	IsVerified     bool               `bson:"is_verified"`
	Headline       string             `bson:"headline,omitempty"`
	Company        string             `bson:"company,omitempty"`
	Bio            string             `bson:"bio,omitempty"`
	GraduationYear int                `bson:"graduation_year,omitempty"`
	AvatarKey      string             `bson:"avatar_key,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}
