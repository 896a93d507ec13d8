package models

import "time"

const (
	DefaultStyle       = "Cinematic"
	DefaultSceneCount  = 5
	DefaultAspectRatio = AspectLandscape
)

// 可选的美术风格
var ArtStyles = []string{
	"Cinematic",
	"Anime",
	"Photorealistic",
	"Fantasy Art",
	"Cyberpunk",
	"Watercolor",
	"Minimalist",
	"Pixar",
	"Ghibli",
}

// Project 聚合根。scenario 是分析的唯一输入源；
// 一次分析会整体替换 Scenes/Characters，不做合并。
type Project struct {
	ID          string      `json:"id"`
	Scenario    string      `json:"scenario"`
	Scenes      []Scene     `json:"scenes"`
	Characters  []Character `json:"characters"`
	Style       string      `json:"selectedStyle"`
	SceneCount  int         `json:"sceneCount"`
	AspectRatio string      `json:"aspectRatio"`
	Error       string      `json:"error,omitempty"` // 项目级错误（分析/导入失败）
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// IsGenerating 任意角色肖像 / 场景图片 / 场景视频生成中则为 true
func (p *Project) IsGenerating() bool {
	for i := range p.Characters {
		if p.Characters[i].IsLoadingImage {
			return true
		}
	}
	for i := range p.Scenes {
		if p.Scenes[i].IsLoadingImage || p.Scenes[i].IsLoadingVideo {
			return true
		}
	}
	return false
}

// ProjectDocument 导出/导入的 JSON 形态，字段名与前端保存格式一致。
// 导入时缺失字段回退到空项目的初始形态。
type ProjectDocument struct {
	Scenario    string      `json:"scenario"`
	Scenes      []Scene     `json:"scenes"`
	Characters  []Character `json:"characters"`
	Style       string      `json:"selectedStyle"`
	SceneCount  int         `json:"sceneCount"`
	AspectRatio string      `json:"aspectRatio"`
}

// Export 从内存状态原样导出
func (p *Project) Export() ProjectDocument {
	return ProjectDocument{
		Scenario:    p.Scenario,
		Scenes:      p.Scenes,
		Characters:  p.Characters,
		Style:       p.Style,
		SceneCount:  p.SceneCount,
		AspectRatio: p.AspectRatio,
	}
}

// ApplyDefaults 导入文档的缺省值处理
func (d *ProjectDocument) ApplyDefaults() {
	if d.Scenes == nil {
		d.Scenes = []Scene{}
	}
	if d.Characters == nil {
		d.Characters = []Character{}
	}
	if d.Style == "" {
		d.Style = DefaultStyle
	}
	if d.SceneCount <= 0 {
		d.SceneCount = DefaultSceneCount
	}
	if d.AspectRatio == "" {
		d.AspectRatio = DefaultAspectRatio
	}
}
