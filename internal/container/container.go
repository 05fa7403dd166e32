package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/doitnow-api/config"
	"github.com/oksasatya/doitnow-api/internal/application"
	"github.com/oksasatya/doitnow-api/internal/domain/repository"
	"github.com/oksasatya/doitnow-api/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtManager  *helpers.JWTManager

	userRepo repository.UserRepository
	taskRepo repository.TaskRepository

	proofStore application.ProofStore
	taskIndex  application.TaskIndex
	otpSender  application.OTPSender
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	return cfg
}
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return logger
}
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil {
		c := GetConfig()
		jwtManager = helpers.NewJWTManager(c.JWTAccessSecret, c.JWTRefreshSecret, c.AccessTTL, c.RefreshTTL)
	}
	return jwtManager
}

func SetUserRepo(r repository.UserRepository) { userRepo = r }
func GetUserRepo() repository.UserRepository  { return userRepo }
func SetTaskRepo(r repository.TaskRepository) { taskRepo = r }
func GetTaskRepo() repository.TaskRepository  { return taskRepo }

func SetProofStore(s application.ProofStore) { proofStore = s }
func GetProofStore() application.ProofStore  { return proofStore }
func SetTaskIndex(i application.TaskIndex)   { taskIndex = i }
func GetTaskIndex() application.TaskIndex    { return taskIndex }
func SetOTPSender(s application.OTPSender)   { otpSender = s }
func GetOTPSender() application.OTPSender    { return otpSender }
