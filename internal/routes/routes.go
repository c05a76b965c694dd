package routes

import (
	"net/http"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/handlers"
	"github.com/01moynul/brandstudio-golang/internal/logging"
	"github.com/01moynul/brandstudio-golang/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// corsConfig allows the front-end origins to call the API with a bearer token.
func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cache-Control", "X-Requested-With", middleware.WorkspaceHeader},
		ExposeHeaders:    []string{"Content-Length", logging.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func SetupRouter(h *handlers.Handlers, log *zap.Logger, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(log))
	router.Use(cors.New(corsConfig(origins)))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Auth Routes (Public) ---
		v1.POST("/register", h.Register)
		v1.POST("/login", h.Login)

		// --- Signed file links (Public, token checked by the handler) ---
		v1.GET("/files/:bucket/*path", h.ServeObject)

		// --- Protected Routes (Login Required) ---
		auth := v1.Group("/")
		auth.Use(middleware.AuthMiddleware(h.DB))
		{
			auth.GET("/me", h.GetMe)

			auth.GET("/workspaces", h.GetMyWorkspaces)
			auth.POST("/workspaces", h.CreateWorkspace)
			auth.POST("/workspaces/:id/members", h.AddWorkspaceMember)

			// --- Notification Routes ---
			auth.GET("/notifications", h.GetMyNotifications)
			auth.PATCH("/notifications/:id/read", h.MarkNotificationAsRead)

			// --- Drafts ---
			auth.GET("/drafts/:key", h.GetDraft)
			auth.PUT("/drafts/:key", h.SaveDraft)
			auth.DELETE("/drafts/:key", h.DeleteDraft)

			// --- My coaching ---
			auth.GET("/coaching", h.GetMyCoaching)
			auth.PATCH("/coaching/actions/:id", h.UpdateMyAction)
		}

		// --- Workspace Routes (Login + X-Workspace-ID) ---
		ws := v1.Group("/")
		ws.Use(middleware.AuthMiddleware(h.DB))
		ws.Use(middleware.WorkspaceMiddleware(h.DB))
		{
			// Branding
			ws.GET("/branding/summary", h.GetBrandingSummary)
			ws.GET("/branding/:section", h.GetBrandSection)
			ws.PUT("/branding/:section", h.SaveBrandSection)

			// Offers
			offers := ws.Group("/offers")
			{
				offers.GET("", h.GetOffers)
				offers.POST("", h.CreateOffer)
				offers.GET("/:id", h.GetOffer)
				offers.PUT("/:id", h.UpdateOffer)
				offers.DELETE("/:id", h.DeleteOffer)
				offers.POST("/:id/coaching", h.CoachOffer)
			}

			// Content calendar and saved ideas
			ws.GET("/calendar", h.GetCalendarPosts)
			ws.POST("/calendar", h.CreateCalendarPost)
			ws.PUT("/calendar/:id", h.UpdateCalendarPost)
			ws.PATCH("/calendar/:id/status", h.UpdateCalendarPostStatus)
			ws.DELETE("/calendar/:id", h.DeleteCalendarPost)

			ws.GET("/ideas", h.GetSavedIdeas)
			ws.POST("/ideas", h.CreateSavedIdea)
			ws.DELETE("/ideas/:id", h.DeleteSavedIdea)
			ws.POST("/ideas/:id/schedule", h.ScheduleSavedIdea)

			// Instagram editorial line
			ws.GET("/instagram/editorial-line", h.GetEditorialLine)
			ws.PUT("/instagram/editorial-line", h.SaveEditorialLine)
			ws.POST("/instagram/editorial-line/estimate", h.EstimateEditorialLine)

			// Audits
			audits := ws.Group("/audits")
			{
				audits.GET("/branding", h.GetBrandingAudits)
				audits.POST("/branding", h.RunBrandingAudit)
				audits.GET("/branding/:id", h.GetBrandingAudit)
				audits.PATCH("/recommendations/:id", h.UpdateRecommendation)
				audits.GET("/website", h.GetWebsiteAudit)
				audits.POST("/website", h.RunWebsiteAudit)
			}

			// --- AI Routes ---
			ws.GET("/ai/functions", h.GetAIFunctions)
			ws.POST("/ai/chat", h.ChatAI)
			ws.POST("/ai/:function", h.RunAIFunction)

			// Storage
			ws.POST("/storage/:bucket", h.UploadObject)
			ws.GET("/storage/:bucket", h.GetObjects)
			ws.DELETE("/storage/:bucket/:id", h.DeleteObject)

			ws.GET("/stats/monthly", h.GetMonthlyStats)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/admin/coaching")
		admin.Use(middleware.AuthMiddleware(h.DB))
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/programs", h.GetPrograms)
			admin.POST("/programs", h.CreateProgram)
			admin.POST("/programs/:id/sessions", h.CreateSession)
			admin.POST("/programs/:id/actions", h.CreateAction)
			admin.POST("/programs/:id/deliverables", h.CreateDeliverable)
			admin.PATCH("/sessions/:id/done", h.CompleteSession)
		}
	}

	return router
}
