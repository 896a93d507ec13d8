package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"StoryProducer-server/models"

	"github.com/gin-gonic/gin"
)

// 创建空项目
func CreateProject(c *gin.Context) {
	p := Store.CreateProject()
	c.JSON(http.StatusOK, gin.H{"project": p})
}

// 项目列表
func ListProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": Store.ListProjects()})
}

// 项目详情（完整聚合快照 + 是否有生成在途）
func GetProject(c *gin.Context) {
	p, err := Store.GetProject(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project":       p,
		"is_generating": p.IsGenerating(),
	})
}

// 删除项目
func DeleteProject(c *gin.Context) {
	if err := Store.DeleteProject(c.Param("project_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "项目已删除"})
}

// 更新项目全局设置。纯 Store 写入，不触发任何生成，也不重置产物状态。
func UpdateSettings(c *gin.Context) {
	projectID := c.Param("project_id")
	var req struct {
		Scenario    *string `json:"scenario"`
		Style       *string `json:"style"`
		SceneCount  *int    `json:"scene_count"`
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

	err := Store.PatchProject(projectID, func(p *models.Project) {
		if req.Scenario != nil {
			p.Scenario = *req.Scenario
		}
		if req.Style != nil {
			p.Style = *req.Style
		}
		if req.SceneCount != nil && *req.SceneCount > 0 {
			p.SceneCount = *req.SceneCount
		}
		if req.AspectRatio != nil {
			p.AspectRatio = *req.AspectRatio
		}
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "设置已更新"})
}

// 触发故事分析。202 返回后由后台完成分析与串行肖像批次，
// 进度随时可通过 GET 详情或 WebSocket 观察。
func AnalyzeProject(c *gin.Context) {
	projectID := c.Param("project_id")
	p, err := Store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	if strings.TrimSpace(p.Scenario) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scenario 为空，无法分析"})
		return
	}
	// 生成在途时拒绝重复触发（流水线自身没有重入防护）
	if p.IsGenerating() {
		c.JSON(http.StatusConflict, gin.H{"error": "项目有生成任务在途，请稍后再试"})
		return
	}

	go func() {
		if err := Pipe.Analyze(context.Background(), projectID); err != nil {
			log.Printf("分析流水线失败 (project %s): %v", projectID, err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "分析已开始", "project_id": projectID})
}

// 导出项目 JSON 文档（内存状态原样写出）
func ExportProject(c *gin.Context) {
	p, err := Store.GetProject(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="story-producer-project.json"`)
	c.JSON(http.StatusOK, p.Export())
}

// 导入项目 JSON 文档。JSON 损坏按单个项目级错误处理，不做部分导入；
// 缺失字段回退默认值。
func ImportProject(c *gin.Context) {
	projectID := c.Param("project_id")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取请求体失败: " + err.Error()})
		return
	}
	var doc models.ProjectDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "项目文件格式损坏，导入已取消"})
		return
	}
	if err := Store.ImportDocument(projectID, doc); err != nil {
		if errors.Is(err, models.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "项目已导入"})
}

// 上传纯文本文件作为 scenario。只接受 .txt，其他类型整体拒绝。
func ImportScenarioFile(c *gin.Context) {
	projectID := c.Param("project_id")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少上传文件: " + err.Error()})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if filepath.Ext(fileHeader.Filename) != ".txt" && contentType != "text/plain" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "只支持纯文本(.txt)文件"})
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

	if err := Store.PatchProject(projectID, func(p *models.Project) {
		p.Scenario = string(data)
	}); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scenario 已更新", "length": len(data)})
}
