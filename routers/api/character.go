package api

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"StoryProducer-server/models"

	"github.com/gin-gonic/gin"
)

func charID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("char_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 char_id"})
		return 0, false
	}
	return id, true
}

// 编辑角色描述 / 肖像视觉描述。纯 Store 写入，不重置产物或失败状态。
func UpdateCharacter(c *gin.Context) {
	projectID := c.Param("project_id")
	id, ok := charID(c)
	if !ok {
		return
	}

	var req struct {
		Description       *string `json:"description"`
		VisualDescription *string `json:"visual_description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := Store.PatchCharacter(projectID, id, func(ch *models.Character) {
		if req.Description != nil {
			ch.Description = *req.Description
		}
		if req.VisualDescription != nil {
			ch.VisualDescription = *req.VisualDescription
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "角色未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "角色已更新", "char_id": id})
}

// 手动重试角色肖像生成
func RetryCharacterImage(c *gin.Context) {
	projectID := c.Param("project_id")
	id, ok := charID(c)
	if !ok {
		return
	}
	if _, err := Store.GetCharacter(projectID, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "角色未找到: " + err.Error()})
		return
	}

	go func() {
		if err := Ctrl.RetryCharacterPortrait(context.Background(), projectID, id); err != nil {
			log.Printf("肖像重试控制器出错 (project %s, char %d): %v", projectID, id, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "肖像生成已开始", "char_id": id})
}

// 上传图片文件直接作为角色肖像，不经过生成客户端
func UploadCharacterImage(c *gin.Context) {
	projectID := c.Param("project_id")
	id, ok := charID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件: " + err.Error()})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "只支持图片文件"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "打开上传文件失败: " + err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败: " + err.Error()})
		return
	}

	if err := Ctrl.UploadCharacterPortrait(projectID, id, data, contentType); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "角色未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "肖像已上传", "char_id": id})
}
