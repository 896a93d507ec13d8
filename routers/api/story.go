package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 由一个点子合成故事文本并写入项目 scenario。
// 同步调用：单次文本生成耗时可接受，客户端直接拿到结果。
func GenerateStory(c *gin.Context) {
	projectID := c.Param("project_id")

	var req struct {
		Idea   string `json:"idea"`
		Genre  string `json:"genre"`
		Style  string `json:"style"`
		Length int    `json:"length"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Idea == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idea is required"})
		return
	}
	if req.Length <= 0 {
		req.Length = 1000
	}

	story, err := Pipe.GenerateStory(c.Request.Context(), projectID, req.Idea, req.Genre, req.Style, req.Length)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "故事生成失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"story": story})
}
