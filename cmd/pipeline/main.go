package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"go-character-pipeline/internal/model"
	"go-character-pipeline/internal/pipeline"
	"go-character-pipeline/internal/store"
	"go-character-pipeline/pkg/utils"
)

const defaultEndpoint = "https://rickandmortyapi.com/api/character"

func main() {
	// Optional .env file
	_ = godotenv.Load()

	// Init DB
	if err := store.InitDB(utils.EnvOr("PIPELINE_DB", "pipeline.db")); err != nil {
		panic(err)
	}

	spec := model.RunSpec{
		Endpoint: utils.EnvOr("API_ENDPOINT", defaultEndpoint),
		CacheKey: utils.EnvOr("CACHE_KEY", "rickandmorty:characters"),
		Redis: model.Redis{
			Addr: utils.EnvOr("REDIS_ADDR", "localhost:6379"),
		},
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID, spec); err != nil {
		panic(err)
	}

	err := pipeline.Run(context.Background(), runID, spec, pipeline.DefaultChartFile)
	if errors.Is(err, pipeline.ErrCacheUnavailable) {
		fmt.Printf("Unable to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
