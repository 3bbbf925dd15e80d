package api

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Auth         service.AuthService
	Roster       service.RosterService
	Catalog      service.CatalogService
	Templates    service.TemplateService
	Plans        service.PlanService
	Views        service.PlanViewService
	Materializer service.Materializer
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	defaultLocale domain.Locale,
	services Services,
) {
	authHandler := NewAuthHandler(services.Auth)
	rosterHandler := NewRosterHandler(services.Roster)
	catalogHandler := NewCatalogHandler(services.Catalog)
	templateHandler := NewTemplateHandler(services.Templates, services.Views, services.Materializer)
	planHandler := NewPlanHandler(services.Plans, services.Views)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(LocaleMiddleware(defaultLocale))
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			// Roster
			adminGroup.POST("/clients", rosterHandler.AddClientByEmail)
			adminGroup.GET("/clients", rosterHandler.GetManagedClients)

			// Catalog
			adminGroup.POST("/exercises", catalogHandler.CreateExercise)
			adminGroup.GET("/exercises", catalogHandler.ListExercises)
			adminGroup.GET("/exercises/:id", catalogHandler.GetExercise)
			adminGroup.PUT("/exercises/:id", catalogHandler.UpdateExercise)
			adminGroup.DELETE("/exercises/:id", catalogHandler.DeleteExercise)
			adminGroup.POST("/exercises/:id/image-url", catalogHandler.RequestImageUploadURL(domain.CatalogExercise))
			adminGroup.POST("/exercises/:id/image", catalogHandler.ConfirmImage(domain.CatalogExercise))

			adminGroup.POST("/foods", catalogHandler.CreateFood)
			adminGroup.GET("/foods", catalogHandler.ListFoods)
			adminGroup.GET("/foods/:id", catalogHandler.GetFood)
			adminGroup.PUT("/foods/:id", catalogHandler.UpdateFood)
			adminGroup.DELETE("/foods/:id", catalogHandler.DeleteFood)
			adminGroup.POST("/foods/:id/image-url", catalogHandler.RequestImageUploadURL(domain.CatalogFood))
			adminGroup.POST("/foods/:id/image", catalogHandler.ConfirmImage(domain.CatalogFood))

			// Templates and materialization
			adminGroup.POST("/templates", templateHandler.CreateTemplate)
			adminGroup.GET("/templates", templateHandler.ListTemplates)
			adminGroup.GET("/templates/:id", templateHandler.GetTemplate)
			adminGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
			adminGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)
			adminGroup.POST("/templates/:id/materialize", templateHandler.Materialize)

			adminGroup.GET("/jobs", templateHandler.ListJobs)
			adminGroup.GET("/jobs/:id", templateHandler.GetJob)
			adminGroup.POST("/jobs/:id/resume", templateHandler.ResumeJob)
			adminGroup.POST("/jobs/:id/discard", templateHandler.DiscardJob)

			// Client plans
			adminGroup.POST("/clients/:clientId/plans", planHandler.CreatePlan)
			adminGroup.GET("/clients/:clientId/plans", planHandler.ListClientPlans)
			adminGroup.GET("/clients/:clientId/dashboard", planHandler.ClientDashboard)

			adminGroup.GET("/plans/:planId", planHandler.GetPlan)
			adminGroup.PATCH("/plans/:planId", planHandler.RenamePlan)
			adminGroup.DELETE("/plans/:planId", planHandler.DeletePlan)
			adminGroup.POST("/plans/:planId/activate", planHandler.ActivatePlan)
			adminGroup.POST("/plans/:planId/archive", planHandler.ArchivePlan)
			adminGroup.POST("/plans/:planId/days", planHandler.AddDay)

			adminGroup.PATCH("/days/:dayId", planHandler.UpdateDay)
			adminGroup.DELETE("/days/:dayId", planHandler.DeleteDay)
			adminGroup.POST("/days/:dayId/items", planHandler.AddItem)

			adminGroup.PATCH("/items/:itemId", planHandler.UpdateItem)
			adminGroup.DELETE("/items/:itemId", planHandler.DeleteItem)
		}

		// --- Client Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/dashboard", planHandler.MyDashboard)
			clientGroup.GET("/plans", planHandler.ListMyPlans)
			clientGroup.GET("/plans/:planId", planHandler.GetPlan)
		}
	}
}
