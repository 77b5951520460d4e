package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/tripleaaa123/amongusfr/internal/config"
	"github.com/tripleaaa123/amongusfr/internal/handlers"
	"github.com/tripleaaa123/amongusfr/internal/security"
	"github.com/tripleaaa123/amongusfr/internal/services"
	_ "github.com/tripleaaa123/amongusfr/pb_migrations"
)

func main() {
	pb := pocketbase.New()

	cfg := config.Load()
	tokens := security.NewTokenManager(cfg.JWTSecret)

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	go hub.Run()

	games := services.NewGameManager(pb, tokens)
	voting := services.NewVotingEngine(pb, hub)
	interrupts := services.NewInterruptCoordinator(pb, hub, voting)
	tasks := services.NewTaskAdjudicator(pb, tokens, hub)

	gameHandlers := handlers.NewGameHandlers(games, hub)
	playHandlers := handlers.NewPlayHandlers(games, interrupts, voting, hub)
	taskHandlers := handlers.NewTaskHandlers(tasks)
	wsHandler := handlers.NewWSHandler(hub, games, cfg, metrics)

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// public endpoints
		se.Router.POST("/api/games", gameHandlers.CreateGame)
		se.Router.POST("/api/games/join", gameHandlers.JoinGame)
		se.Router.POST("/api/accessories/join", gameHandlers.JoinAccessory)
		se.Router.GET("/api/health", handlers.HandleHealth(metrics))
		se.Router.GET("/api/metrics", handlers.HandleMetrics(metrics))

		// everything below requires a session credential
		authed := se.Router.Group("")
		authed.Bind(handlers.RequireSession(tokens))

		authed.GET("/api/games/{gameId}", gameHandlers.GetGame)
		authed.POST("/api/games/{gameId}/start", gameHandlers.StartGame)
		authed.PATCH("/api/games/{gameId}/config", gameHandlers.UpdateConfig)
		authed.POST("/api/games/{gameId}/end", gameHandlers.EndGame)

		authed.POST("/api/games/{gameId}/sabotage", playHandlers.TriggerSabotage)
		authed.POST("/api/games/{gameId}/sabotage/complete", playHandlers.CompleteSabotage)
		authed.POST("/api/games/{gameId}/meetings", playHandlers.CallMeeting)
		authed.POST("/api/games/{gameId}/meetings/{meetingId}/commence-voting", playHandlers.CommenceVoting)
		authed.POST("/api/games/{gameId}/meetings/{meetingId}/votes", playHandlers.CastVote)
		authed.POST("/api/games/{gameId}/meetings/{meetingId}/resolve", playHandlers.ResolveMeeting)
		authed.POST("/api/games/{gameId}/kill", playHandlers.MarkDead)
		authed.POST("/api/games/{gameId}/who-died", playHandlers.SelectWhoDied)

		authed.GET("/api/games/{gameId}/assignments", taskHandlers.ListAssignments)
		authed.POST("/api/games/{gameId}/tasks/scan", taskHandlers.Scan)
		authed.POST("/api/games/{gameId}/tasks/{taskId}/complete", taskHandlers.CompleteDigital)
		authed.POST("/api/games/{gameId}/tasks/{taskId}/proof", taskHandlers.SubmitProof)

		authed.GET("/ws/{gameId}", wsHandler.HandleWebSocket)

		return se.Next()
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
