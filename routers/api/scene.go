package api

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"StoryProducer-server/models"

	"github.com/gin-gonic/gin"
)

func sceneID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("scene_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 scene_id"})
		return 0, false
	}
	return id, true
}

// 编辑场景的 prompt / 画面比例。纯 Store 写入，不重置产物或失败状态。
func UpdateScene(c *gin.Context) {
	projectID := c.Param("project_id")
	id, ok := sceneID(c)
	if !ok {
		return
	}

	var req struct {
		ImagePrompt *string `json:"image_prompt"`
		AspectRatio *string `json:"aspect_ratio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AspectRatio != nil && !models.IsValidAspectRatio(*req.AspectRatio) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的画面比例: " + *req.AspectRatio})
		return
	}

	err := Store.PatchScene(projectID, id, func(s *models.Scene) {
		if req.ImagePrompt != nil {
			s.ImagePrompt = *req.ImagePrompt
		}
		if req.AspectRatio != nil {
			s.AspectRatio = *req.AspectRatio
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "场景未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "场景已更新", "scene_id": id})
}

// 触发场景生图（生成与重试是同一个操作）
func GenerateSceneImage(c *gin.Context) {
	projectID := c.Param("project_id")
	id, ok := sceneID(c)
	if !ok {
		return
	}
	if _, err := Store.GetScene(projectID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "场景未找到: " + err.Error()})
		return
	}

	go func() {
		if err := Ctrl.GenerateSceneImage(context.Background(), projectID, id); err != nil {
			log.Printf("场景生图控制器出错 (project %s, scene %d): %v", projectID, id, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "场景生图已开始", "scene_id": id})
}

// 触发场景视频生成。前置条件不满足时控制器静默跳过，场景状态不变。
func GenerateSceneVideo(c *gin.Context) {
	projectID := c.Param("project_id")
	id, ok := sceneID(c)
	if !ok {
		return
	}
	if _, err := Store.GetScene(projectID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "场景未找到: " + err.Error()})
		return
	}

	go func() {
		if err := Ctrl.GenerateSceneVideo(context.Background(), projectID, id); err != nil {
			log.Printf("场景视频控制器出错 (project %s, scene %d): %v", projectID, id, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "视频生成请求已受理", "scene_id": id})
}
