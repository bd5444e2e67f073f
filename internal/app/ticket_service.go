package app

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// TicketService issues and checks seat tickets: short-lived HS256 tokens that
// bind a user to the match a quick-match request placed them in.
type TicketService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

var (
	ErrTicketConfig   = errors.New("ticket service is not configured")
	ErrTicketInvalid  = errors.New("seat ticket is invalid")
	ErrTicketMismatch = errors.New("seat ticket was issued for another user or match")
)

const defaultTicketTTL = 2 * time.Minute

func NewTicketService(secret, issuer string, ttl time.Duration) *TicketService {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	return &TicketService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether tickets can be issued and must be checked.
func (s *TicketService) Enabled() bool {
	return s != nil && s.secret != ""
}

func (s *TicketService) Issue(userID, matchID string) (string, error) {
	if !s.Enabled() {
		return "", ErrTicketConfig
	}
	if userID == "" || matchID == "" {
		return "", fmt.Errorf("user and match are required")
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": userID,
		"mid": matchID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": fmt.Sprintf("%d-%d", now.UnixNano(), rand.Int63()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks that ticket is signed by this service, unexpired, and was
// issued to userID for matchID.
func (s *TicketService) Verify(ticket, userID, matchID string) error {
	if !s.Enabled() {
		return ErrTicketConfig
	}

	token, err := jwt.Parse(ticket, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTicketInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrTicketInvalid
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return fmt.Errorf("%w: issuer", ErrTicketInvalid)
	}
	if sub, _ := claims["sub"].(string); sub != userID {
		return ErrTicketMismatch
	}
	if mid, _ := claims["mid"].(string); mid != matchID {
		return ErrTicketMismatch
	}
	return nil
}
