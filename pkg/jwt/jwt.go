package jwt

import (
	"errors"
	"fmt"
	"time"

	"social-hub/config"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// clockSkew 校验 exp/nbf/iat 时容忍的时钟偏差
const clockSkew = 30 * time.Second

var (
	ErrEmptyToken     = errors.New("token is empty")
	ErrMissingSubject = errors.New("token has no subject")
)

// JWTService 校验身份提供方签发的 HS256 令牌，Subject 为外部身份ID
// 签发能力只给本地联调和压测工具用
type JWTService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwtv5.Parser
}

// CustomClaims 令牌声明，Data 只放非敏感的扩展字段
type CustomClaims struct {
	Data map[string]interface{} `json:"data,omitempty"`
	jwtv5.RegisteredClaims
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	s := &JWTService{
		key:    []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.ExpireTime,
		now:    time.Now,
	}
	s.parser = jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(cfg.Issuer),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithIssuedAt(),
		jwtv5.WithLeeway(clockSkew),
		jwtv5.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// GenerateToken 为 subject 签发令牌，extraData 写入 Data
func (s *JWTService) GenerateToken(subject string, extraData map[string]interface{}) (string, error) {
	if subject == "" {
		return "", ErrMissingSubject
	}

	issuedAt := s.now()
	claims := CustomClaims{
		Data: extraData,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwtv5.NewNumericDate(issuedAt),
			NotBefore: jwtv5.NewNumericDate(issuedAt),
			ExpiresAt: jwtv5.NewNumericDate(issuedAt.Add(s.ttl)),
		},
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken 校验签名、签发者与有效期，返回的声明保证带有 Subject
func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}

	var claims CustomClaims
	if _, err := s.parser.ParseWithClaims(tokenString, &claims, s.keyFunc); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &claims, nil
}

// keyFunc 算法已由 WithValidMethods 限定，这里只提供密钥
func (s *JWTService) keyFunc(*jwtv5.Token) (interface{}, error) {
	return s.key, nil
}
