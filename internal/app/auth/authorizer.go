package auth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain/user"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"time"
)

var (
	ErrAccessTokenInvalid = errors.New("invalid access token")
	ErrAccessTokenExpired = fmt.Errorf("%w: token expired", ErrAccessTokenInvalid)
)

// Authorizer hashes passwords and issues stateless HS256 access tokens that
// carry the user's role.
type Authorizer struct {
	Cost           int
	Secret         string
	AccessTokenTTL time.Duration
}

var _ user.Authorizer = (*Authorizer)(nil)

// Hash fails with user.ErrInvalidPassword for passwords bcrypt rejects.
// Its limit is 72 bytes, not characters.
func (a *Authorizer) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %w", user.ErrInvalidPassword, err)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hex.EncodeToString(hash), nil
}

func (a *Authorizer) Compare(hash, password string) error {
	hashBytes, err := hex.DecodeString(hash)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(hashBytes, []byte(password)); err != nil {
		return user.ErrInvalidCredentials
	}
	return nil
}

func (a *Authorizer) GenerateAccessToken(u *user.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"jti":  uuid.NewString(),
		"sub":  u.UserID,
		"role": string(u.Role),
		"exp":  now.Add(a.AccessTokenTTL).Unix(),
		"iat":  now.Unix(),
	})
	return token.SignedString([]byte(a.Secret))
}

type AccessTokenData struct {
	TokenID string
	UserID  string
	Role    user.Role
}

func (a *Authorizer) ValidateAccessToken(accessToken string) (*AccessTokenData, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(a.Secret), nil
	})

	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrAccessTokenExpired
		}
		return nil, ErrAccessTokenInvalid
	}

	jti, _ := claims["jti"].(string)
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || !user.Role(role).Valid() {
		return nil, ErrAccessTokenInvalid
	}

	return &AccessTokenData{
		TokenID: jti,
		UserID:  sub,
		Role:    user.Role(role),
	}, nil
}
