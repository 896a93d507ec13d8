package service

import (
	"context"

	"StoryProducer-server/models"
)

// Generator 对外部生成服务的无状态适配层。四类调用都不持有跨调用状态，
// 输入只来自调用方传入的实体快照。
type Generator interface {
	// GenerateStoryFromIdea 由一个点子合成完整故事文本
	GenerateStoryFromIdea(ctx context.Context, idea, genre, style string, length int) (string, error)
	// GenerateStoryAnalysis 把剧本解析为结构化的场景+角色两组数据
	GenerateStoryAnalysis(ctx context.Context, scenario string, sceneCount int) (*models.StoryAnalysis, error)
	// GenerateCharacterPortrait 按视觉描述生成角色肖像，返回 data URI
	GenerateCharacterPortrait(ctx context.Context, visualDescription, style string) (string, error)
	// GenerateStyledSceneImage 按 prompt + 角色参照图生成场景图，返回 data URI
	GenerateStyledSceneImage(ctx context.Context, prompt, style, aspectRatio string, refs []models.CharacterImage) (string, error)
	// GenerateSceneVideo 长耗时调用：提交后轮询直到完成，返回本地可访问的视频路径
	GenerateSceneVideo(ctx context.Context, prompt, imageDataURI, aspectRatio string) (string, error)
}
