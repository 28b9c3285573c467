package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Huddle/internal/adapters/events"
	"github.com/dkeye/Huddle/internal/app"
	"github.com/dkeye/Huddle/internal/config"
	"github.com/dkeye/Huddle/internal/core"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// Deps is everything the HTTP surface needs wired in.
type Deps struct {
	Registry *app.Registry
	Provider core.SessionProvider
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("HuddleSessions", store))
	r.Use(ClientTokenMiddleware())

	ctl := NewController(deps.Registry, deps.Provider, cfg.BaseURL)
	evt := &events.Controller{
		Registry:   deps.Registry,
		PushPeriod: cfg.PingPeriod,
		ReadLimit:  cfg.ReadLimit,
	}

	log.Info().Str("module", "adapters.http").Str("base_url", cfg.BaseURL).Msg("router setup")

	api := r.Group("/api")

	api.GET("/whoami", ctl.WhoAmI)
	api.POST("/rename", ctl.Rename)

	dash := api.Group("/dashboard")
	dash.GET("/state", ctl.DashboardState)
	dash.POST("/instant", ctl.StartInstant)
	dash.POST("/schedule", ctl.Schedule)
	dash.POST("/join", ctl.JoinByLink)
	dash.POST("/recordings", ctl.OpenRecordings)
	dash.POST("/link/copy", ctl.CopyLink)
	dash.POST("/close", ctl.CloseWizard)

	meeting := api.Group("/meeting")
	meeting.GET("/:id", ctl.MountMeeting)
	meeting.DELETE("/:id", ctl.UnmountMeeting)
	meeting.POST("/:id/join", ctl.ConfirmSetup)
	meeting.POST("/:id/layout", ctl.SetLayout)
	meeting.POST("/:id/participants", ctl.ToggleParticipants)
	meeting.POST("/:id/leave", ctl.Leave)
	meeting.POST("/:id/end", ctl.End)

	api.GET("/ws/meeting/:id", func(c *gin.Context) {
		evt.HandleMeeting(ctx, c)
	})

	return r
}
