package main

import (
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"go-character-pipeline/internal/api"
	_ "go-character-pipeline/internal/api/docs"
	"go-character-pipeline/internal/api/handler"
	"go-character-pipeline/internal/store"
	"go-character-pipeline/pkg/router"
	"go-character-pipeline/pkg/utils"
)

// @title Character Pipeline API
// @version 1.0
// @description HTTP control plane for the character pipeline: trigger runs and inspect their reports.
// @BasePath /api/v1
func main() {
	// Optional .env file
	_ = godotenv.Load()

	// Init DB
	if err := store.InitDB(utils.EnvOr("PIPELINE_DB", "pipeline.db")); err != nil {
		panic(err)
	}

	handler.SetOutputDir(utils.EnvOr("OUTPUT_DIR", "outputs"))

	// Create router
	r := router.New()

	// Register API routes
	api.RegisterRoutes(r)
	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.WrapHandler))

	// Start server
	r.Start(utils.EnvOr("API_ADDR", ":8080"))
}
