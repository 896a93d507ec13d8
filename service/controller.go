package service

import (
	"context"
	"fmt"
	"log"

	"StoryProducer-server/models"
)

// Controller 单实体生成控制器：每次调用只驱动一个角色或场景的一次生成，
// 失败在这里被拦下并记到该实体的失败原因上，绝不波及兄弟实体。
type Controller struct {
	Store *models.ProjectStore
	Gen   Generator
}

func NewController(store *models.ProjectStore, gen Generator) *Controller {
	return &Controller{Store: store, Gen: gen}
}

// RetryCharacterPortrait 手动重试单个角色肖像，与其他角色状态无关。
// 使用角色当前（可能被编辑过的）视觉描述。
func (ct *Controller) RetryCharacterPortrait(ctx context.Context, projectID string, charID int) error {
	if err := ct.Store.PatchCharacter(projectID, charID, func(c *models.Character) {
		c.IsLoadingImage = true
		c.ImageURL = ""
		c.ErrorReason = ""
	}); err != nil {
		return err
	}
	generatePortrait(ctx, ct.Store, ct.Gen, projectID, charID)
	return nil
}

// UploadCharacterPortrait 用户直接上传肖像：转成与生成肖像相同的 data URI 表示，
// 清掉失败状态，不经过生成客户端。
func (ct *Controller) UploadCharacterPortrait(projectID string, charID int, data []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	uri := EncodeDataURI(mimeType, data)
	return ct.Store.PatchCharacter(projectID, charID, func(c *models.Character) {
		c.ImageURL = uri
		c.IsLoadingImage = false
		c.ErrorReason = ""
	})
}

// GenerateSceneImage 生成或重试场景图（同一个操作）。
// 参照图集合在调用时刻计算；视频已存在时重新生图是允许的，
// 旧视频会因此过期，这是已知并接受的边界情况。
func (ct *Controller) GenerateSceneImage(ctx context.Context, projectID string, sceneID int) error {
	if err := ct.Store.PatchScene(projectID, sceneID, func(s *models.Scene) {
		s.IsLoadingImage = true
		s.ImageURL = ""
		s.ErrorReason = ""
	}); err != nil {
		return err
	}

	proj, err := ct.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	scene, err := ct.Store.GetScene(projectID, sceneID)
	if err != nil {
		return err
	}
	refs := models.SceneReferences(scene, proj.Characters)

	imageURL, genErr := ct.Gen.GenerateStyledSceneImage(ctx, scene.ImagePrompt, proj.Style, scene.AspectRatio, refs)
	if genErr != nil {
		reason := Reason(genErr)
		log.Printf("场景 %d 生图失败: %v", sceneID, genErr)
		return ct.Store.PatchScene(projectID, sceneID, func(s *models.Scene) {
			s.IsLoadingImage = false
			s.ImageURL = ""
			s.ErrorReason = reason
		})
	}

	go ArchiveImageDataURI(imageURL, fmt.Sprintf("projects/%s/scenes/%d/image.png", projectID, sceneID))
	return ct.Store.PatchScene(projectID, sceneID, func(s *models.Scene) {
		s.ImageURL = imageURL
		s.IsLoadingImage = false
	})
}

// GenerateSceneVideo 场景视频生成。前置条件不满足（图片缺失/失败、视频已在生成）时
// 静默跳过；失败只记录本次失败原因，之前已生成的视频保持不动。
func (ct *Controller) GenerateSceneVideo(ctx context.Context, projectID string, sceneID int) error {
	scene, err := ct.Store.GetScene(projectID, sceneID)
	if err != nil {
		return err
	}
	if !scene.CanGenerateVideo() {
		return nil
	}

	if err := ct.Store.PatchScene(projectID, sceneID, func(s *models.Scene) {
		s.IsLoadingVideo = true
		s.VideoErrorReason = ""
	}); err != nil {
		return err
	}

	videoURL, genErr := ct.Gen.GenerateSceneVideo(ctx, scene.ImagePrompt, scene.ImageURL, scene.AspectRatio)
	if genErr != nil {
		reason := Reason(genErr)
		log.Printf("场景 %d 视频生成失败: %v", sceneID, genErr)
		return ct.Store.PatchScene(projectID, sceneID, func(s *models.Scene) {
			s.IsLoadingVideo = false
			s.VideoErrorReason = reason
		})
	}

	go ArchiveLocalFile(videoURL, fmt.Sprintf("projects/%s/scenes/%d/video.mp4", projectID, sceneID))
	return ct.Store.PatchScene(projectID, sceneID, func(s *models.Scene) {
		s.VideoURL = videoURL
		s.IsLoadingVideo = false
	})
}

// generatePortrait 肖像生成的公共路径：分析批次和手动重试都走这里。
// 成败只写回该角色自己的记录。
func generatePortrait(ctx context.Context, store *models.ProjectStore, gen Generator, projectID string, charID int) {
	proj, err := store.GetProject(projectID)
	if err != nil {
		log.Printf("读取项目失败，跳过肖像生成: %v", err)
		return
	}
	char, err := store.GetCharacter(projectID, charID)
	if err != nil {
		log.Printf("读取角色失败，跳过肖像生成: %v", err)
		return
	}

	imageURL, genErr := gen.GenerateCharacterPortrait(ctx, char.VisualDescription, proj.Style)
	if genErr != nil {
		reason := Reason(genErr)
		log.Printf("角色 %s 肖像生成失败: %v", char.Name, genErr)
		_ = store.PatchCharacter(projectID, charID, func(c *models.Character) {
			c.IsLoadingImage = false
			c.ImageURL = ""
			c.ErrorReason = reason
		})
		return
	}

	go ArchiveImageDataURI(imageURL, fmt.Sprintf("projects/%s/characters/%d/portrait.png", projectID, charID))
	_ = store.PatchCharacter(projectID, charID, func(c *models.Character) {
		c.ImageURL = imageURL
		c.IsLoadingImage = false
	})
}
