// Command populate creates the relational schema and loads the CSV dataset
// into it. It expects exclusive access to the target database.
//
// The dataset directory must contain Data1000Movies.csv; users.csv and
// reviews.csv seeds are optional. The reference CSV is not committed, so it
// has to be supplied before running this command or booting the server with
// the memory backend.
package main

import (
	"context"
	"flag"
	"os"

	"moviecatalog/configs"
	"moviecatalog/internal/dataset"
	"moviecatalog/internal/repository/database"
	"moviecatalog/pkg/logging"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const serviceName = "moviecatalog-populate"

func main() {
	configPath := flag.String("config", "defaults.yaml", "path to the service configuration")
	dataPath := flag.String("data", "", "dataset directory, overrides the configured one")
	flag.Parse()

	logConfig := zap.NewProductionConfig()
	log, err := logConfig.Build()
	if err != nil {
		panic(err)
	}
	log = log.With(zap.String(logging.FieldService, serviceName))

	f, err := os.Open(*configPath)
	if err != nil {
		log.Fatal("Failed to open the configuration", zap.Error(err))
	}
	var cfg configs.ServiceConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatal("Failed to decode the configuration", zap.Error(err))
	}
	if err := f.Close(); err != nil {
		log.Warn("failed to close file", zap.Error(err))
	}
	path := cfg.Dataset.Path
	if *dataPath != "" {
		path = *dataPath
	}

	repo, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open the database", zap.Error(err))
	}
	db := repo.DB()
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("Failed to close the database", zap.Error(err))
		}
	}()

	dialect := cfg.Database.Driver
	if dialect == "sqlite" {
		dialect = "sqlite3"
	}
	if err := database.Migrate(db, dialect); err != nil {
		log.Fatal("Failed to migrate the schema", zap.Error(err))
	}

	ctx := context.Background()
	if err := dataset.Populate(ctx, db, path, log); err != nil {
		log.Fatal("Failed to populate the database", zap.Error(err))
	}
	log.Info("Database populated", zap.String("path", path))
}
