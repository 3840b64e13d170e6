package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumekit/internal/admin"
	"resumekit/internal/api/middleware"
	"resumekit/internal/auth"
	"resumekit/internal/library"
	"resumekit/internal/resume"
)

// RegisterRoutes 注册 API 路由。
func RegisterRoutes(
	router *gin.Engine,
	db *gorm.DB,
	authService *auth.AuthService,
	redisClient redis.UniversalClient,
	loginRateLimitPerHour int,
) {
	libStore := library.NewStore(db)
	resumeStore := resume.NewStore(db)

	authHandler := NewAuthHandler(db, authService, redisClient, loginRateLimitPerHour)
	libraryHandler := NewLibraryHandler(libStore)
	resumeHandler := NewResumeHandler(resumeStore, libStore)
	exportHandler := NewExportHandler(resumeStore, libStore)
	adminHandler := NewAdminHandler(admin.NewStore(db))
	authMiddleware := middleware.AuthMiddleware(authService, redisClient)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.GET("/me", authMiddleware, authHandler.Me)
			authGroup.PUT("/password", authMiddleware, authHandler.ChangePassword)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PUT("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.GET("/:id/pdf", exportHandler.ExportPDF)
		}

		libraryGroup := v1.Group("")
		libraryGroup.Use(authMiddleware)
		{
			libraryGroup.GET("/skills", libraryHandler.ListSkills)
			libraryGroup.POST("/skills", libraryHandler.CreateSkill)
			libraryGroup.PUT("/skills/:id", libraryHandler.UpdateSkill)
			libraryGroup.DELETE("/skills/:id", libraryHandler.DeleteSkill)

			libraryGroup.GET("/skill-categories", libraryHandler.ListCategories)
			libraryGroup.POST("/skill-categories", libraryHandler.CreateCategory)
			libraryGroup.PUT("/skill-categories/:id", libraryHandler.UpdateCategory)
			libraryGroup.DELETE("/skill-categories/:id", libraryHandler.DeleteCategory)

			libraryGroup.GET("/experiences", libraryHandler.ListExperiences)
			libraryGroup.POST("/experiences", libraryHandler.CreateExperience)
			libraryGroup.PUT("/experiences/:id", libraryHandler.UpdateExperience)
			libraryGroup.DELETE("/experiences/:id", libraryHandler.DeleteExperience)

			libraryGroup.GET("/education", libraryHandler.ListEducation)
			libraryGroup.POST("/education", libraryHandler.CreateEducation)
			libraryGroup.DELETE("/education/:id", libraryHandler.DeleteEducation)

			libraryGroup.GET("/projects", libraryHandler.ListProjects)
			libraryGroup.POST("/projects", libraryHandler.CreateProject)
			libraryGroup.PUT("/projects/:id", libraryHandler.UpdateProject)
			libraryGroup.DELETE("/projects/:id", libraryHandler.DeleteProject)

			libraryGroup.GET("/socials", libraryHandler.ListSocials)
			libraryGroup.POST("/socials", libraryHandler.CreateSocial)
			libraryGroup.DELETE("/socials/:id", libraryHandler.DeleteSocial)

			libraryGroup.GET("/contacts", libraryHandler.ListContacts)
			libraryGroup.POST("/contacts", libraryHandler.CreateContact)
			libraryGroup.PUT("/contacts/:id", libraryHandler.UpdateContact)
			libraryGroup.DELETE("/contacts/:id", libraryHandler.DeleteContact)
		}

		dbGroup := v1.Group("/db")
		dbGroup.Use(authMiddleware)
		{
			dbGroup.GET("/tables", adminHandler.ListTables)
			dbGroup.GET("/tables/:name/schema", adminHandler.GetSchema)
			dbGroup.GET("/tables/:name/records", adminHandler.ListRecords)
			dbGroup.POST("/tables/:name/records", adminHandler.InsertRecord)
			dbGroup.PUT("/tables/:name/records/:id", adminHandler.UpdateRecord)
			dbGroup.DELETE("/tables/:name/records/:id", adminHandler.DeleteRecord)
		}
	}
}
