package handlers

import (
	"errors"
	"strings"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/hook"

	"github.com/tripleaaa123/amongusfr/internal/security"
	"github.com/tripleaaa123/amongusfr/internal/services"
)

const sessionContextKey = "session"

// RequireSession parses the Bearer credential and stores the verified claims
// on the request event. Requests without a valid credential are rejected.
func RequireSession(tokens *security.TokenManager) *hook.Handler[*core.RequestEvent] {
	return &hook.Handler[*core.RequestEvent]{
		Id: "requireSession",
		Func: func(e *core.RequestEvent) error {
			claims, err := sessionFromRequest(e, tokens)
			if err != nil {
				return apis.NewUnauthorizedError("Missing or invalid credential.", nil)
			}
			e.Set(sessionContextKey, claims)
			return e.Next()
		},
	}
}

func sessionFromRequest(e *core.RequestEvent, tokens *security.TokenManager) (*security.SessionClaims, error) {
	header := e.Request.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		// WebSocket clients cannot set headers; fall back to a query param.
		token = e.Request.URL.Query().Get("token")
	}
	if token == "" {
		return nil, security.ErrInvalidToken
	}
	return tokens.VerifySession(token)
}

// session returns the claims stored by RequireSession.
func session(e *core.RequestEvent) *security.SessionClaims {
	claims, _ := e.Get(sessionContextKey).(*security.SessionClaims)
	return claims
}

// playerSession returns the claims only if they belong to a player of the
// given game.
func playerSession(e *core.RequestEvent, gameID string) (*security.SessionClaims, error) {
	claims := session(e)
	if claims == nil {
		return nil, apis.NewUnauthorizedError("Missing or invalid credential.", nil)
	}
	if claims.GameID != gameID || claims.PlayerID == "" {
		return nil, apis.NewForbiddenError("Credential does not grant access to this game.", nil)
	}
	return claims, nil
}

// accessorySession returns the claims only if they belong to an accessory of
// the given game.
func accessorySession(e *core.RequestEvent, gameID string) (*security.SessionClaims, error) {
	claims := session(e)
	if claims == nil {
		return nil, apis.NewUnauthorizedError("Missing or invalid credential.", nil)
	}
	if claims.GameID != gameID || claims.AccessoryID == "" {
		return nil, apis.NewForbiddenError("Credential does not grant access to this game.", nil)
	}
	return claims, nil
}

// gameSession accepts either a player or an accessory credential for the
// given game, for actions both kinds of caller may drive.
func gameSession(e *core.RequestEvent, gameID string) (*security.SessionClaims, error) {
	claims := session(e)
	if claims == nil {
		return nil, apis.NewUnauthorizedError("Missing or invalid credential.", nil)
	}
	if claims.GameID != gameID || (claims.PlayerID == "" && claims.AccessoryID == "") {
		return nil, apis.NewForbiddenError("Credential does not grant access to this game.", nil)
	}
	return claims, nil
}

// apiError maps service errors onto the HTTP error taxonomy.
func apiError(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, services.ErrNotFound):
		return apis.NewNotFoundError("", err)

	case errors.Is(err, services.ErrNotHost),
		errors.Is(err, services.ErrNotImpostor),
		errors.Is(err, services.ErrDead):
		return apis.NewForbiddenError(err.Error(), nil)

	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidTarget),
		errors.Is(err, services.ErrMiniMismatch),
		errors.Is(err, services.ErrTokenMismatch),
		errors.Is(err, security.ErrInvalidToken):
		return apis.NewBadRequestError(err.Error(), nil)

	case errors.Is(err, services.ErrGameStarted),
		errors.Is(err, services.ErrGameNotRunning),
		errors.Is(err, services.ErrNotEnoughPlayers),
		errors.Is(err, services.ErrInterruptActive),
		errors.Is(err, services.ErrNoActiveSabotage),
		errors.Is(err, services.ErrNoActiveMeeting),
		errors.Is(err, services.ErrOnCooldown),
		errors.Is(err, services.ErrMeetingClosed),
		errors.Is(err, services.ErrAlreadyResolved),
		errors.Is(err, services.ErrAlreadyDead),
		errors.Is(err, services.ErrAlreadyComplete),
		errors.Is(err, services.ErrScoreTooHigh),
		errors.Is(err, services.ErrAbstainDisabled):
		return apis.NewApiError(409, err.Error(), nil)

	default:
		return apis.NewBadRequestError(err.Error(), nil)
	}
}
