package main

import (
	"context"
	"log"
	"os"
	"time"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

type app struct {
	cfg       *config.Config
	mongo     *mongo.Client
	auth      *handler.AuthHandler
	otp       *handler.OTPHandler
	profile   *handler.ProfileHandler
	twoFactor *handler.TwoFactorHandler
	notes     *handler.NoteHandler
	stats     *handler.StatsHandler
	gate      gin.HandlerFunc
	authLimit *middleware.RateLimiter
}

func setupRouter(a *app) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestSizeLimiter(a.cfg.Server.MaxRequestSize))

	router.GET("/health", a.stats.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := middleware.RateLimitMiddleware(a.authLimit)

	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", limited, a.auth.Signup)
		auth.POST("/login", limited, a.auth.Login)
		auth.POST("/logout", a.auth.Logout)
		auth.GET("/refresh", limited, a.auth.Refresh)
	}

	protected := router.Group("/api")
	protected.Use(a.gate)
	{
		account := protected.Group("/auth")
		{
			account.POST("/sendotp", limited, a.otp.SendOTP)
			account.POST("/verifyotp", a.otp.VerifyOTP)
			account.GET("/check", a.auth.Check)
			account.PUT("/update-profile", a.profile.UpdateProfile)

			twofa := account.Group("/2fa")
			{
				twofa.POST("/generate", a.twoFactor.GenerateSecret)
				twofa.POST("/enable", a.twoFactor.Enable)
				twofa.POST("/disable", a.twoFactor.Disable)
			}
		}

		notes := protected.Group("/notes")
		{
			notes.POST("/create", a.notes.CreateNote)
			notes.GET("/get", a.notes.ListNotes)
			notes.GET("/get/:id", a.notes.GetNote)
			notes.PUT("/update/:id", a.notes.UpdateNote)
			notes.DELETE("/delete/:id", a.notes.DeleteNote)
		}
	}

	return router
}

func main() {
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	utils.InitValidator()

	ctx := context.Background()

	mongoClient, err := repository.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting MongoDB: %v", err)
		}
	}()

	if err := repository.SetupIndexes(mongoClient.Database(cfg.Database.DatabaseName)); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	tokens, err := services.NewTokenService(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}

	blacklist, err := services.NewRedisBlacklist(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer blacklist.Close()

	media, err := services.NewS3MediaStore(ctx, cfg.Media)
	if err != nil {
		log.Fatalf("Failed to initialize media store: %v", err)
	}

	userRepo := repository.NewUserRepo(mongoClient, cfg.Database.DatabaseName)
	noteRepo := repository.NewNoteRepo(mongoClient, cfg.Database.DatabaseName)

	userService := &usecase.UserService{
		Users:     userRepo,
		Mailer:    services.NewResendMailer(cfg.Email),
		Media:     media,
		OTPLength: cfg.Auth.OTPLength,
		OTPTTL:    cfg.Auth.OTPTTL,
	}
	noteService := &usecase.NoteService{
		Notes: noteRepo,
		Media: media,
	}

	authLimit := middleware.NewRateLimiter(10*time.Minute, 30)
	go func() {
		for range time.Tick(10 * time.Minute) {
			authLimit.CleanupStaleEntries()
		}
	}()

	a := &app{
		cfg:       cfg,
		mongo:     mongoClient,
		auth:      handler.NewAuthHandler(userService, tokens, blacklist),
		otp:       handler.NewOTPHandler(userService),
		profile:   handler.NewProfileHandler(userService),
		twoFactor: handler.NewTwoFactorHandler(userService, cfg.Auth.Issuer),
		notes:     handler.NewNoteHandler(noteService),
		stats:     handler.NewStatsHandler(mongoClient),
		gate:      middleware.AuthMiddleware(tokens, userRepo, blacklist),
		authLimit: authLimit,
	}

	router := setupRouter(a)

	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
