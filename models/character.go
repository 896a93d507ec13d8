package models

// Character 分析阶段提取的角色。肖像为 data URI，上传与生成后不作区分。
type Character struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Personality       string `json:"personality"` // 展示用，逗号拼接
	Visuals           string `json:"visuals"`     // 展示用，逗号拼接
	VisualDescription string `json:"visualDescription"` // 肖像生成 prompt，可独立编辑
	ImageURL          string `json:"imageUrl"`
	IsLoadingImage    bool   `json:"isLoadingImage"`
	ErrorReason       string `json:"errorReason"`
}

// HasImage 肖像处于 present 且非失败状态（生成或上传均可）
func (c *Character) HasImage() bool {
	return c.ImageURL != "" && c.ErrorReason == ""
}

// CharacterImage 场景生图时作为外观参照传入的角色图
type CharacterImage struct {
	Name    string `json:"name"`
	DataURI string `json:"dataUri"`
}
