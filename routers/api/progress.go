package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 项目进度 WebSocket 推送：以 Store 为唯一来源，每秒读一次快照，
// 状态有变化就推送；所有生成落定后推送最终状态并关闭连接。
func ProjectProgressWebSocket(c *gin.Context) {
	projectID := c.Param("project_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	p, err := Store.GetProject(projectID)
	if err != nil {
		conn.WriteJSON(map[string]interface{}{"error": "project not found: " + err.Error()})
		return
	}
	_ = conn.WriteJSON(p)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prevUpdated := p.UpdatedAt
	sawGenerating := p.IsGenerating()

	for range ticker.C {
		cur, err := Store.GetProject(projectID)
		if err != nil {
			// 项目被删除，断开连接
			break
		}

		if !cur.UpdatedAt.Equal(prevUpdated) {
			if err := conn.WriteJSON(cur); err != nil {
				break
			}
			prevUpdated = cur.UpdatedAt
		}

		if cur.IsGenerating() {
			sawGenerating = true
		} else if sawGenerating {
			// 本轮生成全部落定，推送最终状态后关闭
			_ = conn.WriteJSON(cur)
			break
		}
	}
}
