package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"StoryProducer-server/models"
)

// Pipeline 分析流水线：剧本 -> 结构化实体 -> 串行肖像批量生成。
// 不持有跨调用状态；重入防护由调用方负责（界面在生成期间禁用触发）。
type Pipeline struct {
	Store *models.ProjectStore
	Gen   Generator
}

func NewPipeline(store *models.ProjectStore, gen Generator) *Pipeline {
	return &Pipeline{Store: store, Gen: gen}
}

// Analyze 跑一次完整分析。分析调用失败记为项目级错误，不产生任何实体；
// 成功则整体替换场景/角色，然后严格按 id 顺序逐个生成角色肖像，
// 单个肖像的成败只写回该角色自己，兄弟实体随时可读。
// 返回时肖像批次已全部落定。
func (p *Pipeline) Analyze(ctx context.Context, projectID string) error {
	proj, err := p.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(proj.Scenario) == "" {
		return nil
	}

	analysis, err := p.Gen.GenerateStoryAnalysis(ctx, proj.Scenario, proj.SceneCount)
	if err != nil {
		reason := Reason(err)
		log.Printf("故事分析失败: %v", err)
		_ = p.Store.PatchProject(projectID, func(pr *models.Project) {
			pr.Error = reason
		})
		return err
	}

	scenes, characters := analysis.BuildEntities(proj.AspectRatio)
	if err := p.Store.ReplaceEntities(projectID, scenes, characters); err != nil {
		return err
	}
	log.Printf("分析完成: %d 个场景, %d 个角色 (project %s)", len(scenes), len(characters), projectID)

	// 肖像串行生成，避免触发 provider 限流
	q := NewSequence()
	for _, c := range characters {
		charID := c.ID
		q.Enqueue(fmt.Sprintf("portrait-%d", charID), func(ctx context.Context) {
			generatePortrait(ctx, p.Store, p.Gen, projectID, charID)
		})
	}
	q.Drain(ctx)
	return nil
}

// GenerateStory 由点子合成故事文本并写入项目 scenario
func (p *Pipeline) GenerateStory(ctx context.Context, projectID, idea, genre, style string, length int) (string, error) {
	story, err := p.Gen.GenerateStoryFromIdea(ctx, idea, genre, style, length)
	if err != nil {
		reason := Reason(err)
		_ = p.Store.PatchProject(projectID, func(pr *models.Project) {
			pr.Error = reason
		})
		return "", err
	}
	if err := p.Store.PatchProject(projectID, func(pr *models.Project) {
		pr.Scenario = story
		pr.Error = ""
	}); err != nil {
		return "", err
	}
	return story, nil
}
