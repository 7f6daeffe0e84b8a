package main

import (
	"log"

	"github.com/dailykpi/internal/config"
	"github.com/dailykpi/internal/db"
	"github.com/dailykpi/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	created, err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword)
	if err != nil {
		log.Fatalf("failed to ensure super root user: %v", err)
	}
	if created {
		log.Printf("created user %q from SUPER_ROOT_USER_NAME", cfg.SuperRootUserName)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg.SessionSecret, cfg.AnalyticsWindowDays)
	log.Printf("listening on %s (database %s)", cfg.ListenAddr, cfg.DatabasePath)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
