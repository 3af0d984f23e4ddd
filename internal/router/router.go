package router

import (
	"net/http"
	"time"

	"github.com/codearena/codearena-backend/internal/config"
	"github.com/codearena/codearena-backend/internal/handler"
	"github.com/codearena/codearena-backend/internal/middleware"
	"github.com/codearena/codearena-backend/internal/model"
	"github.com/codearena/codearena-backend/internal/response"
	"github.com/codearena/codearena-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Progression *handler.ProgressionHandler
	Contest     *handler.ContestHandler
	Question    *handler.QuestionHandler
	Participant *handler.ParticipantHandler
	Proctoring  *handler.ProctoringHandler
	Monitor     *handler.MonitorHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for the violation report endpoint: detectors can fire in
	// bursts but a runaway client must not flood the counters.
	violationLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/participant/login", handlers.Auth.ParticipantLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/participant/logout", middleware.RequireParticipantJWT(authService), handlers.Auth.ParticipantLogout)
		auth.GET("/participant/me", middleware.RequireParticipantJWT(authService), handlers.Auth.ParticipantMe)
	}

	// ─── 2. Participant Group (JWT + Single Device) ────────────────────
	participantAPI := router.Group("/api/v1/participant")
	participantAPI.Use(
		middleware.RequireParticipantJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		participantAPI.GET("/contests/:contest_id/state", handlers.Progression.GetState)
		participantAPI.POST("/contests/:contest_id/levels/:level/enter", handlers.Progression.EnterLevel)
		participantAPI.POST("/contests/:contest_id/levels/:level/complete", handlers.Progression.CompleteLevel)
		participantAPI.GET("/contests/:contest_id/questions", handlers.Progression.ListQuestions)
		participantAPI.POST("/contests/:contest_id/submissions", handlers.Progression.RecordSubmission)
		participantAPI.POST("/contests/:contest_id/violations",
			violationLimiter.Middleware(),
			handlers.Progression.ReportViolation,
		)
		participantAPI.GET("/contests/:contest_id/proctoring", handlers.Progression.GetProctoringStatus)
	}

	// ─── 3. WebSocket Group (Participant WS Auth) ──────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireParticipantWSAuth(authService))
	{
		ws.GET("/contests/:contest_id/stream", handlers.WS.ContestStream)
	}

	// ─── 4. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Contest management
		adminAPI.GET("/contests",
			middleware.RequirePermission(string(model.PermissionContestsRead)),
			handlers.Contest.List,
		)
		adminAPI.POST("/contests",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.Create,
		)
		adminAPI.GET("/contests/:contest_id",
			middleware.RequirePermission(string(model.PermissionContestsRead)),
			handlers.Contest.Get,
		)
		adminAPI.PUT("/contests/:contest_id",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.Update,
		)
		adminAPI.DELETE("/contests/:contest_id",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.Delete,
		)
		adminAPI.POST("/contests/:contest_id/start",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.Start,
		)
		adminAPI.POST("/contests/:contest_id/pause",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.Pause,
		)
		adminAPI.POST("/contests/:contest_id/end",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.End,
		)
		adminAPI.GET("/contests/:contest_id/stats",
			middleware.RequirePermission(string(model.PermissionContestsRead)),
			handlers.Contest.Stats,
		)
		adminAPI.POST("/contests/:contest_id/countdown",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.StartCountdown,
		)
		adminAPI.DELETE("/contests/:contest_id/countdown",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.StopCountdown,
		)

		// Round control
		adminAPI.GET("/contests/:contest_id/rounds",
			middleware.RequirePermission(string(model.PermissionContestsRead)),
			handlers.Contest.ListRounds,
		)
		adminAPI.PUT("/contests/:contest_id/rounds/:level",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.UpdateRound,
		)
		adminAPI.POST("/contests/:contest_id/rounds/:level/activate",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.ActivateRound,
		)
		adminAPI.POST("/contests/:contest_id/rounds/:level/pause",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.PauseRound,
		)
		adminAPI.POST("/contests/:contest_id/rounds/:level/complete",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.CompleteRound,
		)
		adminAPI.GET("/contests/:contest_id/rounds/:level/shortlist",
			middleware.RequirePermission(string(model.PermissionContestsRead)),
			handlers.Contest.GetShortlist,
		)
		adminAPI.PUT("/contests/:contest_id/rounds/:level/shortlist",
			middleware.RequirePermission(string(model.PermissionContestsWrite)),
			handlers.Contest.Qualify,
		)

		// Question management
		adminAPI.GET("/contests/:contest_id/rounds/:level/questions",
			middleware.RequireAnyPermission(string(model.PermissionContestsRead), string(model.PermissionQuestionsWrite)),
			handlers.Question.ListForLevel,
		)
		adminAPI.POST("/contests/:contest_id/rounds/:level/questions",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.Create,
		)
		adminAPI.PUT("/questions/:question_id",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.Update,
		)
		adminAPI.DELETE("/questions/:question_id",
			middleware.RequirePermission(string(model.PermissionQuestionsWrite)),
			handlers.Question.Delete,
		)

		// Participant management
		adminAPI.GET("/participants",
			middleware.RequirePermission(string(model.PermissionParticipantsRead)),
			handlers.Participant.List,
		)
		adminAPI.POST("/participants",
			middleware.RequirePermission(string(model.PermissionParticipantsWrite)),
			handlers.Participant.Create,
		)
		adminAPI.GET("/participants/:participant_id",
			middleware.RequirePermission(string(model.PermissionParticipantsRead)),
			handlers.Participant.Get,
		)
		adminAPI.DELETE("/participants/:participant_id",
			middleware.RequirePermission(string(model.PermissionParticipantsWrite)),
			handlers.Participant.Delete,
		)
		adminAPI.POST("/participants/:participant_id/reset-session",
			middleware.RequirePermission(string(model.PermissionParticipantsWrite)),
			handlers.Participant.ResetSession,
		)

		// Proctoring config + overrides
		adminAPI.GET("/contests/:contest_id/proctoring/config",
			middleware.RequirePermission(string(model.PermissionProctoringRead)),
			handlers.Proctoring.GetConfig,
		)
		adminAPI.PUT("/contests/:contest_id/proctoring/config",
			middleware.RequirePermission(string(model.PermissionProctoringWrite)),
			handlers.Proctoring.UpdateConfig,
		)
		adminAPI.GET("/contests/:contest_id/proctoring/participants/:participant_id",
			middleware.RequirePermission(string(model.PermissionProctoringRead)),
			handlers.Proctoring.GetParticipantStatus,
		)
		adminAPI.POST("/contests/:contest_id/proctoring/participants/:participant_id/disqualify",
			middleware.RequirePermission(string(model.PermissionProctoringWrite)),
			handlers.Proctoring.Disqualify,
		)
		adminAPI.POST("/contests/:contest_id/proctoring/participants/:participant_id/allow-extra",
			middleware.RequirePermission(string(model.PermissionProctoringWrite)),
			handlers.Proctoring.AllowExtra,
		)
		adminAPI.POST("/contests/:contest_id/proctoring/participants/:participant_id/reset-violations",
			middleware.RequirePermission(string(model.PermissionProctoringWrite)),
			handlers.Proctoring.ResetViolations,
		)
		adminAPI.POST("/contests/:contest_id/proctoring/participants/:participant_id/reset-progress",
			middleware.RequirePermission(string(model.PermissionProctoringWrite)),
			handlers.Proctoring.ResetProgress,
		)

		// Live monitor
		adminAPI.GET("/contests/:contest_id/monitor",
			middleware.RequirePermission(string(model.PermissionMonitorRead)),
			handlers.Monitor.Dashboard,
		)
		adminAPI.GET("/contests/:contest_id/monitor/stream",
			middleware.RequirePermission(string(model.PermissionMonitorRead)),
			handlers.Monitor.Stream,
		)
	}

	return router
}
