package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/adapters/signal"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/auth"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware tags every browser with a stable anonymous id,
// independent of login state.
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

func SetupRouter(ctx context.Context, cfg *config.Config, coord *app.Coordinator, users *auth.UserStore, resolver *auth.JWTResolver) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("NegotiationSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Coord: coord, Users: users, Resolver: resolver}
	signalCtl := signal.NewSignalWSController(coord, cfg)

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("ct", c.GetString("client_token")).Msg("ws endpoint hit")
		signalCtl.HandleSignal(ctx, c)
	})

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.GET("/time/now", h.ServerTime)
	api.GET("/rooms", h.Rooms)

	authed := api.Group("")
	authed.Use(h.RequireAuth())
	{
		authed.GET("/chat/:room/history", h.ChatHistory)
		authed.GET("/chat/:room/summary", h.ChatSummary)
		authed.GET("/chat/:room/search", h.ChatSearch)

		authed.POST("/score/:room/submit", h.SubmitScore)
		authed.GET("/score/:room/aggregate", h.AggregateScores)
		authed.GET("/score/:room/ranking", h.Ranking)
		authed.GET("/score/:room/history", h.ScoreHistory)
		authed.GET("/score/:room/ai", h.AIScoreSummary)

		authed.GET("/timer/:room", h.TimerState)

		authed.GET("/admin/users", h.AdminUsers)
	}

	return r
}
