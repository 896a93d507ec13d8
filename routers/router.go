package routers

import (
	"StoryProducer-server/config"
	"StoryProducer-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Static("/static", config.AppConfig.Server.StaticDir)
	v1 := r.Group("/v1/api")
	{
		v1.POST("/projects", api.CreateProject)
		v1.GET("/projects", api.ListProjects)
		v1.GET("/projects/:project_id", api.GetProject)
		v1.DELETE("/projects/:project_id", api.DeleteProject)
		v1.PUT("/projects/:project_id/settings", api.UpdateSettings)
		v1.POST("/projects/:project_id/story", api.GenerateStory)
		v1.POST("/projects/:project_id/analyze", api.AnalyzeProject)
		v1.POST("/projects/:project_id/scenario/file", api.ImportScenarioFile)
		v1.GET("/projects/:project_id/export", api.ExportProject)
		v1.POST("/projects/:project_id/import", api.ImportProject)
		v1.PUT("/projects/:project_id/scenes/:scene_id", api.UpdateScene)
		v1.POST("/projects/:project_id/scenes/:scene_id/image", api.GenerateSceneImage)
		v1.POST("/projects/:project_id/scenes/:scene_id/video", api.GenerateSceneVideo)
		v1.PUT("/projects/:project_id/characters/:char_id", api.UpdateCharacter)
		v1.POST("/projects/:project_id/characters/:char_id/image", api.RetryCharacterImage)
		v1.POST("/projects/:project_id/characters/:char_id/upload", api.UploadCharacterImage)
	}
	r.GET("/projects/:project_id/ws", api.ProjectProgressWebSocket)
	return r
}
