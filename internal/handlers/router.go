package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rocket-assess/assessment-service/internal/models"
	"github.com/rocket-assess/assessment-service/internal/services"
	"github.com/rocket-assess/assessment-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	directoryHandler  *DirectoryHandler
	testHandler       *TestHandler
	inviteHandler     *InviteHandler
	submissionHandler *SubmissionHandler
	reportingHandler  *ReportingHandler
	authMiddleware    *SessionAuthMiddleware
	serviceManager    services.ServiceManager
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		directoryHandler:  NewDirectoryHandler(serviceManager.Directory(), logger),
		testHandler:       NewTestHandler(serviceManager.Test(), logger),
		inviteHandler:     NewInviteHandler(serviceManager.Invite(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), logger),
		reportingHandler:  NewReportingHandler(serviceManager.Reporting(), logger),
		authMiddleware:    NewSessionAuthMiddleware(serviceManager.Auth()),
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public routes: registration and login need no session.
	v1.POST("/organizations", hm.directoryHandler.RegisterOrganization)
	v1.GET("/organizations/code/:code", hm.directoryHandler.GetOrganizationByCode)
	v1.POST("/teachers", hm.directoryHandler.RegisterTeacher)
	v1.POST("/students", hm.directoryHandler.RegisterStudent)
	v1.POST("/auth/login", hm.authHandler.Login)

	// Everything else requires a session token.
	auth := v1.Group("")
	auth.Use(hm.authMiddleware.AuthMiddleware())
	{
		auth.POST("/auth/logout", hm.authHandler.Logout)
		auth.GET("/auth/me", hm.authHandler.Me)

		// Directory
		auth.GET("/organizations/:id", hm.directoryHandler.GetOrganization)
		auth.PUT("/organizations/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleOrganization), hm.directoryHandler.UpdateOrganization)
		auth.GET("/teachers/:id", hm.directoryHandler.GetTeacher)
		auth.GET("/students/:id", hm.directoryHandler.GetStudent)
		auth.GET("/teachers", hm.authMiddleware.RequireRoleMiddleware(models.RoleOrganization, models.RoleTeacher), hm.directoryHandler.ListTeachers)
		auth.GET("/students", hm.authMiddleware.RequireRoleMiddleware(models.RoleOrganization, models.RoleTeacher), hm.directoryHandler.ListStudents)
		auth.POST("/students/invite", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.directoryHandler.InviteStudents)
		auth.GET("/students/invites", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.directoryHandler.ListStudentInvites)

		// Tests and questions. Authoring is teacher-only; a student may view
		// a single test they hold an invite for.
		tests := auth.Group("/tests")
		{
			tests.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.CreateTest)
			tests.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.ListTests)
			tests.GET("/:id", hm.testHandler.GetTest)
			tests.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.UpdateTest)
			tests.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.DeleteTest)

			tests.POST("/:id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.AddQuestion)
			tests.GET("/:id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.testHandler.ListQuestions)

			// Reports hang off the test they describe.
			tests.GET("/:id/attendance", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.reportingHandler.Attendance)
			tests.GET("/:id/rankings", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.reportingHandler.Rankings)
			tests.GET("/:id/rankings/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.reportingHandler.ExportRankings)
		}

		questions := auth.Group("/questions")
		questions.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher))
		{
			questions.GET("", hm.testHandler.QuestionPool)
			questions.PUT("/:question_id", hm.testHandler.UpdateQuestion)
			questions.DELETE("/:question_id", hm.testHandler.DeleteQuestion)
		}

		// Test invites
		invites := auth.Group("/invites")
		{
			invites.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.inviteHandler.IssueInvites)
			invites.GET("/me", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.inviteHandler.ListMyInvites)
			invites.GET("/:id", hm.inviteHandler.GetInvite)
			invites.POST("/:id/ack", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.inviteHandler.MarkAdded)
		}

		// Submissions
		submissions := auth.Group("/submissions")
		{
			submissions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.SubmitTest)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
		}

		// Reporting
		reports := auth.Group("/reports")
		{
			reports.GET("/overview", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher), hm.reportingHandler.TeacherOverview)
			reports.GET("/completed", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.reportingHandler.CompletedTests)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "service": "assessment-service"})
			return
		}
		c.JSON(200, gin.H{"status": "healthy", "service": "assessment-service"})
	})
}
