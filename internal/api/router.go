package api

import (
	"go-character-pipeline/internal/api/handler"
	"go-character-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router) {
	r.POST("/api/v1/runs", handler.CreateRun)
	r.GET("/api/v1/runs", handler.ListRuns)
	// More specific routes first
	r.GET("/api/v1/runs/*/errors", handler.GetRunErrors)
	r.GET("/api/v1/runs/*/logs", handler.GetRunLogs)
	r.GET("/api/v1/runs/*/report", handler.GetRunReport)
	r.GET("/api/v1/runs/*/chart", handler.GetRunChart)
	// Generic run route last
	r.GET("/api/v1/runs/*", handler.GetRun)
}
