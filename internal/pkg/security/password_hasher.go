package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只使用前 72 字节
const maxPasswordBytes = 72

var (
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// HashPassword bcrypt 哈希
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash 不匹配时返回 ErrInvalidCredentials
func CheckPasswordHash(password, hash string) error {
	if hash == "" {
		return ErrInvalidCredentials
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return err
}
