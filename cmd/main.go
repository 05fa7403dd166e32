package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/config"
	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/internal/container"
	"github.com/oksasatya/doitnow-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/doitnow-api/internal/infrastructure/postgres"
	"github.com/oksasatya/doitnow-api/internal/infrastructure/search"
	"github.com/oksasatya/doitnow-api/internal/infrastructure/storage"
	"github.com/oksasatya/doitnow-api/internal/interface/middleware"
	"github.com/oksasatya/doitnow-api/internal/router"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
	"github.com/oksasatya/doitnow-api/pkg/mailer"
	"github.com/oksasatya/doitnow-api/pkg/validation"
)

const uploadsPath = "/uploads"

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// Repositories
	if cfg.UseMemoryStorage() {
		logger.Warn("STORAGE_DRIVER=memory: data is lost on restart")
		store := memory.NewStore()
		container.SetUserRepo(store.Users())
		container.SetTaskRepo(store.Tasks())
	} else {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		closers = append(closers, pool.Close)

		if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		container.SetUserRepo(pginfra.NewUserRepository(pool))
		container.SetTaskRepo(pginfra.NewTaskRepository(pool))
	}

	// Redis: sessions and rate limits
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := helpers.PingRedis(ctx, rdb); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	closers = append(closers, func() { _ = rdb.Close() })

	proofs, closeProofs, err := newProofStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init proof store: %v", err)
	}
	if closeProofs != nil {
		closers = append(closers, closeProofs)
	}

	otp, closeOTP, err := newOTPSender(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init otp sender: %v", err)
	}
	if closeOTP != nil {
		closers = append(closers, closeOTP)
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL))
	container.SetProofStore(proofs)
	container.SetOTPSender(otp)
	if idx := newTaskIndex(ctx, cfg, logger); idx != nil {
		container.SetTaskIndex(idx)
	}

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOriginFunc = func(string) bool { return cfg.Env == "development" }
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}
	if cfg.ProofStore == "local" {
		r.Static(uploadsPath, cfg.UploadDir)
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// newProofStore picks the backend named by PROOF_STORE.
func newProofStore(ctx context.Context, cfg *config.Config) (application.ProofStore, func(), error) {
	switch cfg.ProofStore {
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, nil, errors.New("GCS_BUCKET is required for PROOF_STORE=gcs")
		}
		client, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewGCSStore(client, cfg.GCSBucket), func() { _ = client.Close() }, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
		if err != nil {
			return nil, nil, err
		}
		s, err := storage.NewMinioStore(ctx, client, cfg.MinioBucket)
		return s, nil, err
	case "local", "":
		s, err := storage.NewLocalStore(cfg.UploadDir, uploadsPath)
		return s, nil, err
	default:
		return nil, nil, errors.New("unknown PROOF_STORE " + cfg.ProofStore)
	}
}

// newOTPSender queues OTP mail on RabbitMQ, or logs the code when mail is off.
func newOTPSender(cfg *config.Config, logger *logrus.Logger) (application.OTPSender, func(), error) {
	if !cfg.MailSendEnabled {
		logger.Warn("MAIL_SEND_ENABLED=false: otp codes are logged, not mailed")
		return mailer.LogOTPSender{Logger: logger}, nil, nil
	}
	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		return nil, nil, err
	}
	return mailer.NewQueueOTPSender(pub, cfg, nil), pub.Close, nil
}

// newTaskIndex returns nil when Elasticsearch is not configured or unreachable;
// search then answers with no results.
func newTaskIndex(ctx context.Context, cfg *config.Config, logger *logrus.Logger) application.TaskIndex {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		return nil
	}
	es, err := search.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch client init failed, task search disabled")
		return nil
	}
	idx := search.NewTaskIndex(es, cfg.ESTasksIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.WithError(err).Warn("elasticsearch index setup failed, task search disabled")
		return nil
	}
	return idx
}
