package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, has a
	// bad signature, or carries the wrong claim shape.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionClaims binds a caller identity to a game. Player tokens carry
// PlayerID, accessory tokens carry AccessoryID; never both.
type SessionClaims struct {
	jwt.RegisteredClaims
	GameID      string `json:"game_id"`
	PlayerID    string `json:"player_id,omitempty"`
	AccessoryID string `json:"accessory_id,omitempty"`
}

// ScanClaims is the payload of a physical-task QR token. The nonce makes
// every printed tag unique even for the same task.
type ScanClaims struct {
	jwt.RegisteredClaims
	V      int    `json:"v"`
	GameID string `json:"game_id"`
	TaskID string `json:"task_id"`
	QRID   string `json:"qr_id"`
	Nonce  string `json:"nonce"`
}

// TokenManager issues and validates HS256 tokens for rejoin credentials,
// accessory bindings, and QR scan tokens.
type TokenManager struct {
	secret []byte
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// IssueRejoin issues the credential a player stores to re-enter a game
// after an app restart. It has no expiry; games are soft-ended, never
// deleted, so a stale credential simply resolves to an ended game.
func (tm *TokenManager) IssueRejoin(gameID, playerID string) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
		GameID:   gameID,
		PlayerID: playerID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// IssueAccessory issues the credential for a companion device.
func (tm *TokenManager) IssueAccessory(gameID, accessoryID string) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
		GameID:      gameID,
		AccessoryID: accessoryID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// VerifySession parses and validates a rejoin or accessory credential.
func (tm *TokenManager) VerifySession(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, tm.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.GameID == "" {
		return nil, ErrInvalidToken
	}
	if claims.PlayerID == "" && claims.AccessoryID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueScan signs a QR token binding {game, task, tag, expiry, nonce}.
func (tm *TokenManager) IssueScan(gameID, taskID, qrID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ScanClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		V:      1,
		GameID: gameID,
		TaskID: taskID,
		QRID:   qrID,
		Nonce:  uuid.New().String(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// VerifyScan parses and validates a QR scan token (signature and expiry;
// game/task/tag binding is checked by the adjudicator against the actual
// assignment).
func (tm *TokenManager) VerifyScan(tokenString string) (*ScanClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ScanClaims{}, tm.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*ScanClaims)
	if !ok || !token.Valid || claims.GameID == "" || claims.TaskID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (tm *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return tm.secret, nil
}
