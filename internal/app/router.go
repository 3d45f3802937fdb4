package app

import (
	"assessflow_backend/docs"
	"assessflow_backend/internal/config"
	"assessflow_backend/internal/middleware"
	"assessflow_backend/internal/model"
	"assessflow_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.PUT("/user/profile", c.user.UpdateProfile)
		authGroup.POST("/user/avatar/upload", c.user.UploadAvatar)

		// 客户端作答流程
		authGroup.GET("/assessments", c.flow.ListMine)
		authGroup.GET("/assessments/:id/flow", c.flow.GetFlow)
		authGroup.POST("/assessments/:id/answers", c.flow.RecordAnswer)
		authGroup.POST("/assessments/:id/navigate", c.flow.Navigate)
		authGroup.POST("/assessments/:id/complete", c.flow.Complete)
		authGroup.GET("/assessments/:id/result", c.flow.Result)
	}

	// 管理端路由
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/users", c.user.ListUsers)

		admin.POST("/assessments", c.assessment.CreateAssessment)
		admin.GET("/assessments", c.assessment.ListAssessments)
		admin.GET("/assessments/:id", c.assessment.GetAssessment)
		admin.PUT("/assessments/:id", c.assessment.UpdateAssessment)
		admin.DELETE("/assessments/:id", c.assessment.DeleteAssessment)

		admin.POST("/assessments/:id/topics", c.assessment.CreateTopic)
		admin.GET("/assessments/:id/topics", c.assessment.ListTopics)
		admin.PUT("/topics/:topicId", c.assessment.UpdateTopic)
		admin.DELETE("/topics/:topicId", c.assessment.DeleteTopic)

		admin.POST("/topics/:topicId/questions", c.assessment.CreateQuestion)
		admin.GET("/topics/:topicId/questions", c.assessment.ListQuestions)
		admin.GET("/questions/:questionId", c.assessment.GetQuestion)
		admin.PUT("/questions/:questionId", c.assessment.UpdateQuestion)
		admin.DELETE("/questions/:questionId", c.assessment.DeleteQuestion)
		admin.POST("/questions/:questionId/attachment", c.assessment.UploadAttachment)

		admin.POST("/assessments/:id/assignments", c.assessment.Assign)
		admin.GET("/assessments/:id/assignments", c.assessment.ListAssignments)
		admin.DELETE("/assignments/:assignmentId", c.assessment.RevokeAssignment)

		admin.GET("/assessments/:id/submissions", c.assessment.ListSubmissions)
		admin.GET("/submissions/:submissionId", c.assessment.GetSubmission)
	}
}
