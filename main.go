package main

import (
	"fmt"
	"log"

	"StoryProducer-server/config"
	"StoryProducer-server/models"
	"StoryProducer-server/routers"
	"StoryProducer-server/routers/api"
	"StoryProducer-server/service"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)

	service.InitMinIO()

	gen, err := service.NewGeminiClient(config.AppConfig)
	if err != nil {
		log.Fatalf("Gemini 客户端初始化失败: %v", err)
	}
	defer gen.Close()
	fmt.Println("Gemini client initialized")

	store := models.NewProjectStore()
	pipe := service.NewPipeline(store, gen)
	ctrl := service.NewController(store, gen)
	api.Init(store, pipe, ctrl)

	r := routers.InitRouter()
	r.Run(config.AppConfig.Server.Port)
}
