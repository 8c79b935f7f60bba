package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentorhub/internal/config"
	"mentorhub/internal/database"
	"mentorhub/internal/middleware"
	"mentorhub/internal/modules/booking"
	"mentorhub/internal/modules/schedule"
	"mentorhub/internal/pkg/email"
	jwtsvc "mentorhub/internal/pkg/jwt"
	"mentorhub/internal/pkg/logger"
	"mentorhub/internal/pkg/slotlock"
	"mentorhub/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog := logger.New(cfg.Env)
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	var locker slotlock.Locker
	if cfg.RedisAddr != "" {
		client, err := slotlock.NewRedisClient(cfg.RedisAddr, cfg.RedisPass)
		if err != nil {
			zlog.Fatal("redis connection failed", zap.Error(err))
		}
		locker = slotlock.NewRedisLocker(client, cfg.LockTTL)
		zlog.Info("using redis slot lock", zap.String("addr", cfg.RedisAddr))
	} else {
		locker = slotlock.NewLocalLocker()
		zlog.Info("using in-process slot lock")
	}

	var mail email.Sender = email.NopSender{}
	if cfg.SMTPHost != "" {
		mail = email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom)
		zlog.Info("email notifications enabled", zap.String("smtp", cfg.SMTPHost))
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	scheduleService := schedule.NewService(scheduleRepo, userRepo, zlog)
	scheduleHandler := schedule.NewHandler(scheduleService)

	bookingService := booking.NewService(bookingRepo, slotRepo, userRepo, locker, mail, zlog)
	bookingHandler := booking.NewHandler(bookingService)

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(zlog))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	protected := v1.Group("/")
	protected.Use(middleware.Auth(j))
	{
		scheduleHandler.RegisterRoutes(protected, middleware.MentorOnly())
		bookingHandler.RegisterRoutes(protected, middleware.MentorOnly())
	}

	zlog.Info("starting server", zap.String("port", cfg.HTTPPort))
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
