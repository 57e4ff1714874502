package app

import (
	"context"
	"coursehub_backend/internal/config"
	"coursehub_backend/internal/controller"
	"coursehub_backend/internal/repository"
	"coursehub_backend/internal/service"
	"coursehub_backend/pkg/database"
	"coursehub_backend/pkg/logger"
	"coursehub_backend/pkg/monitoring"
	"coursehub_backend/pkg/security"
	"coursehub_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	course   *repository.CourseRepository
	lesson   *repository.LessonRepository
	progress *repository.ProgressRepository
	quiz     *repository.QuizRepository
	access   *repository.AccessRecordRepository
	bundle   *repository.BundleRepository
	cohort   *repository.CohortRepository
	purchase *repository.PurchaseRepository
}

type services struct {
	auth          *service.AuthService
	storage       *service.StorageService
	content       *service.ContentService
	resolver      *service.AccessResolver
	grants        *service.AccessGrantService
	prerequisites *service.PrerequisiteEvaluator
	lessons       *service.LessonService
	catalog       *service.CatalogService
}

type controllers struct {
	auth    *controller.AuthController
	access  *controller.AccessController
	webhook *controller.WebhookController
	catalog *controller.CatalogController
	lesson  *controller.LessonController
	cohort  *controller.CohortController
	content *controller.ContentController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig swaps in a freshly loaded config and notifies registered
// callbacks. Connection settings are not reapplied; this covers values
// read per request.
func (a *App) ReloadConfig(cfg *config.Config) {
	cfg.ForceMigrate = a.Config.ForceMigrate
	cfg.MigrateOnly = a.Config.MigrateOnly
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		course:   repository.NewCourseRepository(db),
		lesson:   repository.NewLessonRepository(db),
		progress: repository.NewProgressRepository(db),
		quiz:     repository.NewQuizRepository(db),
		access:   repository.NewAccessRecordRepository(db),
		bundle:   repository.NewBundleRepository(db),
		cohort:   repository.NewCohortRepository(db),
		purchase: repository.NewPurchaseRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	locker := database.NewRedisLocker(rdb)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.content = service.NewContentService(repos.course, repos.lesson, s.storage)

	s.resolver = service.NewAccessResolver(repos.access)
	s.grants = service.NewAccessGrantService(
		repos.access,
		repos.course,
		repos.user,
		repos.bundle,
		repos.cohort,
		repos.purchase,
		locker,
	)
	s.prerequisites = service.NewPrerequisiteEvaluator(
		repos.course,
		repos.lesson,
		repos.progress,
		repos.quiz,
		s.resolver,
	)
	s.lessons = service.NewLessonService(repos.lesson, repos.progress, repos.quiz)
	s.catalog = service.NewCatalogService(repos.course, s.resolver, s.prerequisites)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		access:  controller.NewAccessController(s.resolver, s.grants, repos.access),
		webhook: controller.NewWebhookController(s.grants),
		catalog: controller.NewCatalogController(s.catalog, s.prerequisites, repos.course),
		lesson:  controller.NewLessonController(s.lessons, s.resolver),
		cohort:  controller.NewCohortController(s.grants),
		content: controller.NewContentController(s.content),
		health:  controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the expiry reconciliation sweep so records
// past their expires_at get flipped even when nobody resolves them.
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			if _, err := s.resolver.ReconcileExpired(); err != nil {
				logger.Log.Error("expiry reconciliation error", zap.Error(err))
			}
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("course-access-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
