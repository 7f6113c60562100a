package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/mediconnect/backend/internal/config"
	"github.com/mediconnect/backend/internal/db"
	"github.com/mediconnect/backend/internal/http/handlers"
	"github.com/mediconnect/backend/internal/http/middleware"
	"github.com/mediconnect/backend/internal/retrieval"
	"github.com/mediconnect/backend/internal/triage"

	_ "github.com/mediconnect/backend/docs"
)

func Router(cfg config.Config, store *db.Store, agent *triage.Agent, index retrieval.Index, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id", "X-Subject-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Triage:    agent,
		History:   store,
		Index:     index,
		DB:        store,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/triage/assess", h.Assess)
		api.GET("/triage/urgency-levels", h.UrgencyLevels)
		api.GET("/history", h.HistoryList)
		api.GET("/history/recent", h.HistoryRecent)
		api.GET("/history/stats", h.HistoryStats)
		api.PUT("/history/resolution", h.UpdateResolution)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/reference/ingest", h.ReferenceIngest)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
