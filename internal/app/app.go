package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/data/repos"
	"github.com/mlfoundry/catalog-backend/internal/db"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
	"github.com/mlfoundry/catalog-backend/internal/server"
	"github.com/mlfoundry/catalog-backend/internal/services"
	"github.com/mlfoundry/catalog-backend/internal/versioning"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Router *gin.Engine
	Cfg    Config

	Versions versioning.VersionService
	Assets   services.AssetService
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log, cfg.Database)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	substrate := versioning.NewSubstrate(log)
	if err := theDB.Use(substrate); err != nil {
		log.Sync()
		return nil, fmt.Errorf("install versioning substrate: %w", err)
	}

	entityRepo := repos.NewEntityRepo(theDB, log)
	datasetRepo := repos.NewDatasetRepo(theDB, log)
	trainedModelRepo := repos.NewTrainedModelRepo(theDB, log)
	taskRepo := repos.NewTaskRepo(theDB, log)
	collectionRepo := repos.NewCollectionRepo(theDB, log)
	versionHashRepo := repos.NewVersionHashRepo(theDB, log)
	revisionRepo := repos.NewRevisionRepo(theDB, log)

	versionService := versioning.NewVersionService(
		theDB, log, substrate,
		entityRepo, datasetRepo, trainedModelRepo, taskRepo,
		versionHashRepo, revisionRepo,
	)
	assetService := services.NewAssetService(
		theDB, log, versionService,
		entityRepo, datasetRepo, trainedModelRepo, taskRepo, collectionRepo,
	)

	router := server.NewRouter()

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Versions: versionService,
		Assets:   assetService,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Starting HTTP server...", "addr", a.Cfg.HTTPAddr)
	return a.Router.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
