package models

// 画面比例可选值，创建时取项目默认值，之后可单独编辑
const (
	AspectLandscape = "16:9"
	AspectSquare    = "1:1"
	AspectPortrait  = "9:16"
)

var ValidAspectRatios = []string{AspectLandscape, AspectSquare, AspectPortrait}

func IsValidAspectRatio(ar string) bool {
	for _, v := range ValidAspectRatios {
		if v == ar {
			return true
		}
	}
	return false
}

// Scene 分析阶段生成的单个场景。ID 按来源顺序从 0 起分配，项目生命周期内不变。
// 图片与视频各自独立维护 URL / loading / 失败原因三元组：
// URL 为空且不在 loading 且无失败原因 = 从未尝试。
type Scene struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Characters       string `json:"characters"` // 逗号分隔的角色名列表
	Location         string `json:"location"`
	Time             string `json:"time"`
	Props            string `json:"props"`
	Mood             string `json:"mood"`
	ImagePrompt      string `json:"imagePrompt"` // 用户可编辑
	ImageURL         string `json:"imageUrl"`
	IsLoadingImage   bool   `json:"isLoadingImage"`
	AspectRatio      string `json:"aspectRatio"`
	VideoURL         string `json:"videoUrl"`
	IsLoadingVideo   bool   `json:"isLoadingVideo"`
	TransitionPrompt string `json:"transitionPrompt"` // 最后一个场景为空
	ErrorReason      string `json:"errorReason"`
	VideoErrorReason string `json:"videoErrorReason"`
}

// HasImage 图片处于 present 且非失败状态
func (s *Scene) HasImage() bool {
	return s.ImageURL != "" && s.ErrorReason == ""
}

// CanGenerateVideo 视频生成前置条件：图片已生成且当前没有视频生成在进行
func (s *Scene) CanGenerateVideo() bool {
	return s.HasImage() && !s.IsLoadingImage && !s.IsLoadingVideo
}
