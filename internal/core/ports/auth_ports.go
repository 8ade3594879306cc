package ports

import "time"

const (
	RoleAdmin = "admin"
	RoleVoter = "voter"
)

type TokenClaims struct {
	Subject string
	Role    string
}

type TokenIssuer interface {
	IssueAccessToken(subject, role string, ttl time.Duration) (string, error)
}

type TokenVerifier interface {
	VerifyAccessToken(token string) (*TokenClaims, error)
}
