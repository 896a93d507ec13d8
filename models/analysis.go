package models

import "strings"

// StoryAnalysis 结构化分析调用的返回载荷，字段名与模型输出 schema 保持一致
type StoryAnalysis struct {
	Scenes []struct {
		SceneTitle                  string   `json:"scene_title"`
		DetailedDescription         string   `json:"detailed_description"`
		Characters                  []string `json:"characters"`
		Location                    string   `json:"location"`
		Time                        string   `json:"time"`
		Props                       []string `json:"props"`
		Mood                        string   `json:"mood"`
		CreativePromptForImage      string   `json:"creative_prompt_for_image"`
		TransitionPromptToNextScene string   `json:"transition_prompt_to_next_scene"`
	} `json:"scenes"`
	Characters []struct {
		Name                                 string   `json:"name"`
		Description                          string   `json:"description"`
		PersonalityTraits                    []string `json:"personality_traits"`
		VisualDetails                        []string `json:"visual_details"`
		DetailedVisualDescriptionForPortrait string   `json:"detailed_visual_description_for_portrait"`
	} `json:"characters"`
}

// BuildEntities 把分析载荷落成初始实体。场景图片按需生成（不置 loading），
// 角色肖像紧接着批量生成，因此直接置 loading。
// ID 按来源顺序从 0 起分配。
func (a *StoryAnalysis) BuildEntities(defaultAspectRatio string) ([]Scene, []Character) {
	scenes := make([]Scene, 0, len(a.Scenes))
	for i, d := range a.Scenes {
		scenes = append(scenes, Scene{
			ID:               i,
			Title:            d.SceneTitle,
			Description:      d.DetailedDescription,
			Characters:       strings.Join(d.Characters, ", "),
			Location:         d.Location,
			Time:             d.Time,
			Props:            strings.Join(d.Props, ", "),
			Mood:             d.Mood,
			ImagePrompt:      d.CreativePromptForImage,
			AspectRatio:      defaultAspectRatio,
			TransitionPrompt: d.TransitionPromptToNextScene,
		})
	}

	characters := make([]Character, 0, len(a.Characters))
	for i, d := range a.Characters {
		characters = append(characters, Character{
			ID:                i,
			Name:              d.Name,
			Description:       d.Description,
			Personality:       strings.Join(d.PersonalityTraits, ", "),
			Visuals:           strings.Join(d.VisualDetails, ", "),
			VisualDescription: d.DetailedVisualDescriptionForPortrait,
			IsLoadingImage:    true,
		})
	}
	return scenes, characters
}
