// @title CalTrack API
// @description API for the calorie and weight tracking app "CalTrack"
// @BasePath /api/v1
// @schemes http
package main

import (
	"database/sql"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose"

	"github.com/limbo/caltrack/internal/api"
	"github.com/limbo/caltrack/internal/repository"
	"github.com/limbo/caltrack/internal/service"
	"github.com/limbo/caltrack/pkg/config"
)

func init() {
	service.InitValidator()
}

func migrate(cfg repository.DBConfig, dir string) error {
	db, err := sql.Open("pgx", cfg.ConnString())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, dir)
}

func main() {
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	err := migrate(&dbCfg, cfg.GetStringOr("MIGRATIONS_DIR", "./migrations"))
	if err != nil {
		log.Fatal("migrations error: " + err.Error())
	}
	profilesRepo := repository.NewProfilesRepo(&dbCfg)
	catalogRepo := repository.NewCatalogRepo(&dbCfg)
	logRepo := repository.NewLogRepo(&dbCfg)
	metricsRepo := repository.NewMetricsRepo(&dbCfg)
	serv := api.New(&api.ServicesList{
		ProfileService: service.NewProfileService(profilesRepo),
		CatalogService: service.NewCatalogService(catalogRepo),
		LogService:     service.NewLogService(logRepo, catalogRepo),
		MetricsService: service.NewMetricsService(metricsRepo),
		StatsService:   service.NewStatsService(logRepo, metricsRepo, profilesRepo, catalogRepo),
	})
	err = serv.Run(cfg.GetString("API_ADDRESS"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
