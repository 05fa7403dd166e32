package router

import (
	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/internal/container"
	handlers "github.com/oksasatya/doitnow-api/internal/interface/http"
	"github.com/oksasatya/doitnow-api/internal/router/modules"
)

type services struct {
	Auth   *application.AuthService
	Ledger *application.LedgerService
	Tasks  *application.TaskService
}

func buildServices() services {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	ledger := application.NewLedgerService(container.GetUserRepo(), container.GetTaskRepo(), logger, cfg.RedeemMaxRetries)
	auth := application.NewAuthService(
		container.GetUserRepo(),
		ledger,
		container.GetJWT(),
		container.GetRedis(),
		container.GetOTPSender(),
		logger,
		cfg.OTPTTL,
	)
	tasks := application.NewTaskService(container.GetTaskRepo(), container.GetProofStore(), container.GetTaskIndex(), logger)

	return services{Auth: auth, Ledger: ledger, Tasks: tasks}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	svc := buildServices()

	limits := modules.NewLimiter(container.GetRedis(), cfg.RateLimitEnabled, cfg.Env)

	authHandler := handlers.NewAuthHandler(svc.Auth, logger, cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(svc.Auth, svc.Ledger, logger)
	taskHandler := handlers.NewTaskHandler(svc.Tasks, logger, cfg.MaxUploadBytes)

	r.Add(modules.NewAuthModule(authHandler, limits))
	r.Add(modules.NewUserModule(authHandler, userHandler, container.GetRedis(), container.GetJWT(), limits))
	r.Add(modules.NewTaskModule(taskHandler, userHandler, container.GetRedis(), container.GetJWT(), limits))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(limits))
	}
}
