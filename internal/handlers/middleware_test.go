package handlers

import (
	"fmt"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripleaaa123/amongusfr/internal/security"
	"github.com/tripleaaa123/amongusfr/internal/services"
)

func TestApiErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{services.ErrNotFound, 404},
		{fmt.Errorf("game abc: %w", services.ErrNotFound), 404},
		{services.ErrNotHost, 403},
		{services.ErrNotImpostor, 403},
		{services.ErrDead, 403},
		{services.ErrInvalidTarget, 400},
		{services.ErrTokenMismatch, 400},
		{security.ErrInvalidToken, 400},
		{services.ErrGameStarted, 409},
		{services.ErrInterruptActive, 409},
		{services.ErrOnCooldown, 409},
		{services.ErrAlreadyResolved, 409},
		{services.ErrScoreTooHigh, 409},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			apiErr, ok := apiError(tt.err).(*router.ApiError)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
		})
	}
}

func TestApiErrorNil(t *testing.T) {
	assert.NoError(t, apiError(nil))
}

func TestGameSession(t *testing.T) {
	eventWith := func(claims *security.SessionClaims) *core.RequestEvent {
		e := &core.RequestEvent{}
		if claims != nil {
			e.Set(sessionContextKey, claims)
		}
		return e
	}

	t.Run("player credential", func(t *testing.T) {
		claims, err := gameSession(eventWith(&security.SessionClaims{GameID: "g1", PlayerID: "p1"}), "g1")
		require.NoError(t, err)
		assert.Equal(t, "p1", claims.PlayerID)
	})

	t.Run("accessory credential", func(t *testing.T) {
		claims, err := gameSession(eventWith(&security.SessionClaims{GameID: "g1", AccessoryID: "a1"}), "g1")
		require.NoError(t, err)
		assert.Empty(t, claims.PlayerID)
		assert.Equal(t, "a1", claims.AccessoryID)
	})

	t.Run("wrong game rejected", func(t *testing.T) {
		_, err := gameSession(eventWith(&security.SessionClaims{GameID: "g2", PlayerID: "p1"}), "g1")
		assert.Error(t, err)
	})

	t.Run("no claims rejected", func(t *testing.T) {
		_, err := gameSession(eventWith(nil), "g1")
		assert.Error(t, err)
	})
}
