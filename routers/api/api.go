package api

import (
	"StoryProducer-server/models"
	"StoryProducer-server/service"
)

// 包级依赖，main.go 启动时注入
var (
	Store *models.ProjectStore
	Pipe  *service.Pipeline
	Ctrl  *service.Controller
)

func Init(store *models.ProjectStore, pipe *service.Pipeline, ctrl *service.Controller) {
	Store = store
	Pipe = pipe
	Ctrl = ctrl
}
