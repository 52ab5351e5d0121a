package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"

	"blockus/internal/domain"
)

// SeatTokenService signs and verifies tokens that let a disconnected player
// take their seat back in a running match.
type SeatTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// SeatClaims is what a verified seat token grants.
type SeatClaims struct {
	TokenID string
	MatchID string
	UserID  string
	Seat    int
}

const (
	claimMatch = "mid"
	claimSeat  = "seat"
)

var (
	ErrSeatTokenConfig  = errors.New("seat token config is incomplete")
	ErrSeatTokenInvalid = errors.New("seat token is invalid")
)

func NewSeatTokenService(secret, issuer string, ttl time.Duration) *SeatTokenService {
	return &SeatTokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL reports how long issued tokens stay valid.
func (s *SeatTokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token binding userID to seat in matchID.
func (s *SeatTokenService) Issue(matchID, userID string, seat int) (string, error) {
	if s == nil || len(s.secret) == 0 || s.issuer == "" || s.ttl <= 0 {
		return "", ErrSeatTokenConfig
	}
	if matchID == "" || userID == "" {
		return "", fmt.Errorf("match and user are required")
	}
	if seat < 0 || seat >= domain.NumColors {
		return "", fmt.Errorf("seat %d: %w", seat, ErrUnknownPlayer)
	}

	now := s.now()
	claims := jwt.MapClaims{
		"iss":      s.issuer,
		"sub":      userID,
		"iat":      now.Unix(),
		"exp":      now.Add(s.ttl).Unix(),
		"jti":      uuid.NewString(),
		claimMatch: matchID,
		claimSeat:  seat,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the signature, expiry, issuer and match of a token.
func (s *SeatTokenService) Verify(tokenString, matchID string) (SeatClaims, error) {
	if s == nil || len(s.secret) == 0 {
		return SeatClaims{}, ErrSeatTokenConfig
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return SeatClaims{}, fmt.Errorf("%w: %v", ErrSeatTokenInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return SeatClaims{}, ErrSeatTokenInvalid
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return SeatClaims{}, fmt.Errorf("%w: issuer mismatch", ErrSeatTokenInvalid)
	}

	out := SeatClaims{}
	out.TokenID, _ = claims["jti"].(string)
	out.UserID, _ = claims["sub"].(string)
	out.MatchID, _ = claims[claimMatch].(string)
	if out.MatchID != matchID {
		return SeatClaims{}, fmt.Errorf("%w: issued for another match", ErrSeatTokenInvalid)
	}
	// JSON numbers decode as float64.
	seat, ok := claims[claimSeat].(float64)
	if !ok || seat < 0 || int(seat) >= domain.NumColors {
		return SeatClaims{}, fmt.Errorf("%w: bad seat claim", ErrSeatTokenInvalid)
	}
	out.Seat = int(seat)
	return out, nil
}
