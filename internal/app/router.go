package app

import (
	"coursehub_backend/docs"
	"coursehub_backend/internal/config"
	"coursehub_backend/internal/middleware"
	"coursehub_backend/internal/model"
	"coursehub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c, repos)
	a.registerStudentRoutes(router, c, repos, cfg)
	a.registerAdminRoutes(router, c, cfg)
	a.registerWebhookRoutes(router, c, cfg)
}

// Public routes: health, auth, and catalog/course reads that serve both
// anonymous and logged-in callers via optional auth.
func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	browse := router.Group("/api")
	browse.Use(middleware.TryAuthMiddleware(a.Config), middleware.ActivityMiddleware(repos.user))
	{
		browse.GET("/catalog", c.catalog.GetCatalog)
		browse.GET("/catalog/:slug", c.catalog.GetCourse)
		browse.GET("/courses/:courseId/access", c.access.Resolve)
		browse.GET("/courses/:courseId/prerequisites", c.catalog.GetPrerequisites)
	}
}

func (a *App) registerStudentRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)
		authGroup.POST("/gifts/redeem", c.access.RedeemGift)

		lessons := authGroup.Group("/courses/:courseId")
		{
			lessons.GET("/lessons", c.lesson.ListLessons)
			lessons.GET("/lessons/next", c.lesson.NextLesson)
			lessons.GET("/lessons/:lessonId", c.lesson.GetLesson)
			lessons.POST("/lessons/:lessonId/complete", c.lesson.CompleteLesson)
			lessons.POST("/lessons/:lessonId/quiz/attempts", c.lesson.SubmitQuiz)
			lessons.POST("/lessons/:lessonId/video-progress", c.lesson.UpdateVideoProgress)
		}
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/access", c.access.Grant)
		admin.POST("/access/revoke", c.access.Revoke)
		admin.GET("/users/:userId/courses/:courseId/access-records", c.access.History)
		admin.POST("/gifts", c.access.CreateGift)

		admin.POST("/cohorts/:id/members", c.cohort.Join)
		admin.DELETE("/cohorts/:id/members/:userId", c.cohort.Leave)

		admin.POST("/courses/:courseId/thumbnail", c.content.UploadThumbnail)
		admin.POST("/lessons/:lessonId/video", c.content.UploadLessonVideo)
	}
}

// Webhook routes authenticate with the shared provider secret rather
// than user JWTs.
func (a *App) registerWebhookRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	webhooks := router.Group("/api/webhooks")
	webhooks.Use(middleware.WebhookAuthMiddleware(cfg))
	{
		webhooks.POST("/purchase-confirmed", c.webhook.PurchaseConfirmed)
		webhooks.POST("/bundle-purchase-confirmed", c.webhook.BundlePurchaseConfirmed)
	}
}
