package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/thirdeyesoft/portal-backend/internal/config"
	"github.com/thirdeyesoft/portal-backend/internal/database"
	"github.com/thirdeyesoft/portal-backend/internal/handler"
	"github.com/thirdeyesoft/portal-backend/internal/logger"
	"github.com/thirdeyesoft/portal-backend/internal/middleware"
	"github.com/thirdeyesoft/portal-backend/internal/queue"
	"github.com/thirdeyesoft/portal-backend/internal/repository"
	"github.com/thirdeyesoft/portal-backend/internal/router"
	"github.com/thirdeyesoft/portal-backend/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logging(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	vault, err := utils.NewVault(cfg.VaultKey)
	if err != nil {
		log.Fatalf("vault: %v", err)
	}

	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	matrimony := repository.NewMatrimonyRepo(db)
	members := repository.NewMemberRepo(db)
	catalog := repository.NewCatalogRepo(db)
	media := repository.NewMediaRepo(db)
	intake := repository.NewIntakeRepo(db)

	auth := handler.NewAuthHandler(cfg, users, tokens, matrimony, vault, zlog)
	encoder := handler.NewCredentialEncoder(cfg.BcryptCost, vault)
	matrimonyH := handler.NewMatrimonyHandler(matrimony, encoder, zlog)
	memberH := handler.NewMemberHandler(members)
	catalogH := handler.NewCatalogHandler(catalog)
	mediaH := handler.NewMediaHandler(media)
	intakeH := handler.NewIntakeHandler(intake, zlog)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth, cfg.JWTSecret, limiter)
	router.RegisterMatrimony(e, matrimonyH, cfg.JWTSecret)
	router.RegisterMembers(e, memberH, cfg.JWTSecret)
	router.RegisterContent(e, catalogH, mediaH, intakeH, cfg.JWTSecret, cache)

	// Audit trail consumer runs for the lifetime of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			zlog.Warn("audit consumer stopped", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	zlog.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func logging(env string) (*zap.Logger, error) {
	level := "info"
	if env == "dev" {
		level = "debug"
	}
	return logger.New(level, env)
}
