package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quiz-master/internal/app"
)

type RouterConfig struct {
	Registry *app.Registry
	Store    app.Store
}

// NewRouter serves the websocket endpoint next to the leaderboard, health,
// metrics and profiling routes.
func NewRouter(c RouterConfig) *gin.Engine {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery())

	e.GET("/healthz", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "ok")
	})

	ws := NewWSHandler(c.Registry)
	e.GET("/ws", gin.WrapF(ws.ServeWS))

	e.GET("/leaderboard", func(ctx *gin.Context) {
		profile := ctx.Query("profile")
		if profile == "" {
			ctx.JSON(http.StatusBadRequest, errorPayload{Message: "missing profile"})
			return
		}

		if g, ok := c.Registry.Get(profile); ok {
			ctx.JSON(http.StatusOK, g.State().Leaderboard)
			return
		}

		board, err := app.NewStorage(c.Store, profile).LoadLeaderboard(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "http: load leaderboard failed", "profile", profile, "error", err)
			ctx.JSON(http.StatusInternalServerError, errorPayload{Message: "leaderboard unavailable"})
			return
		}
		ctx.JSON(http.StatusOK, board)
	})

	return e
}
