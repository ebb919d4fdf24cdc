package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/sis-registration-api/internal/middleware"
	"github.com/noah-isme/sis-registration-api/internal/models"
	"github.com/noah-isme/sis-registration-api/pkg/config"
	"github.com/noah-isme/sis-registration-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sis-registration-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sis-registration-api/pkg/middleware/requestid"
)

func newRouter(cfg *config.Config, app *application, logr *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(app.metrics))

	r.GET("/health", app.metricsH.Health)
	r.GET("/ready", app.metricsH.Ready)
	r.GET("/metrics", app.metricsH.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(app.auth))

	self := internalmiddleware.RBAC(string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleFaculty), internalmiddleware.RuleSelf)
	anyone := internalmiddleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleFaculty, models.RoleStudent)

	students := api.Group("/students/:id")
	students.GET("/schedule", self, app.schedules.StudentSchedule)
	students.GET("/schedule/export", self, app.schedules.ExportSchedule)
	api.GET("/courses/:id/slots", anyone, app.schedules.CourseSlots)

	if !cfg.Scheduler.Enabled {
		logr.Warn("scheduling mutations disabled by configuration")
		return r
	}

	schedules := api.Group("/schedules", anyone)
	if app.limiter != nil {
		schedules.Use(app.limiter.Middleware())
	}
	schedules.POST("/auto", app.schedules.AutoSchedule)
	schedules.POST("/auto/bulk", app.schedules.BulkAutoSchedule)
	schedules.POST("/select", app.schedules.Select)
	schedules.DELETE("/entries/:id", app.schedules.DropEntry)

	return r
}
