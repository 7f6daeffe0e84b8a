package router

import (
	"strings"

	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "dailykpi_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(sessionSecret string, windowDays int) *gin.Engine {
	r := gin.Default()
	r.Use(handler.RequestID())

	// 配置会话中间件
	secret := strings.TrimSpace(sessionSecret)
	if secret == "" {
		secret = "dailykpi-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 7 * 24 * 60 * 60})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := handler.NewAPI(db.DB, windowDays)

	group := r.Group("/api")
	{
		group.POST("/login", api.Login)
		group.POST("/logout", api.Logout)

		// 需要认证的路由
		auth := group.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/habits", api.ListHabits)
			auth.GET("/habits/:id", api.GetHabit)
			auth.POST("/habits", api.CreateHabit)
			auth.PUT("/habits/:id", api.UpdateHabit)
			auth.DELETE("/habits/:id", api.DeleteHabit)

			auth.GET("/days", api.ListDays)
			auth.GET("/days/:date", api.GetDay)
			auth.PUT("/days/:date", api.SaveDay)
			auth.DELETE("/days/:date", api.DeleteDay)
			auth.GET("/days/:date/priority", api.GetDayPriority)
			auth.POST("/kpi/preview", api.PreviewKPI)

			analytics := auth.Group("/analytics")
			{
				analytics.GET("/summary", api.GetSummary)
				analytics.GET("/trends", api.GetHabitTrends)
				analytics.GET("/forecast", api.GetForecast)
				analytics.GET("/recommendations", api.GetRecommendations)
				analytics.GET("/compare", api.GetComparison)
				analytics.GET("/overview", api.GetOverview)
				analytics.GET("/report", api.GetReport)
			}
		}
	}

	return r
}
