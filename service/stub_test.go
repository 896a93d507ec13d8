package service

import (
	"context"
	"encoding/json"
	"sync"

	"StoryProducer-server/models"
)

// stubGenerator 测试用的确定性生成客户端
type stubGenerator struct {
	mu            sync.Mutex
	portraitCalls []string
	sceneCalls    []string
	videoCalls    []string

	onStory    func(idea, genre, style string, length int) (string, error)
	onAnalysis func(scenario string, sceneCount int) (*models.StoryAnalysis, error)
	onPortrait func(visualDescription, style string) (string, error)
	onSceneImg func(prompt, style, aspectRatio string, refs []models.CharacterImage) (string, error)
	onVideo    func(prompt, imageDataURI, aspectRatio string) (string, error)
}

func (g *stubGenerator) GenerateStoryFromIdea(_ context.Context, idea, genre, style string, length int) (string, error) {
	if g.onStory != nil {
		return g.onStory(idea, genre, style, length)
	}
	return "once upon a time", nil
}

func (g *stubGenerator) GenerateStoryAnalysis(_ context.Context, scenario string, sceneCount int) (*models.StoryAnalysis, error) {
	if g.onAnalysis != nil {
		return g.onAnalysis(scenario, sceneCount)
	}
	return &models.StoryAnalysis{}, nil
}

func (g *stubGenerator) GenerateCharacterPortrait(_ context.Context, visualDescription, style string) (string, error) {
	g.mu.Lock()
	g.portraitCalls = append(g.portraitCalls, visualDescription)
	g.mu.Unlock()
	if g.onPortrait != nil {
		return g.onPortrait(visualDescription, style)
	}
	return "data:image/png;base64,cG9ydHJhaXQ=", nil
}

func (g *stubGenerator) GenerateStyledSceneImage(_ context.Context, prompt, style, aspectRatio string, refs []models.CharacterImage) (string, error) {
	g.mu.Lock()
	g.sceneCalls = append(g.sceneCalls, prompt)
	g.mu.Unlock()
	if g.onSceneImg != nil {
		return g.onSceneImg(prompt, style, aspectRatio, refs)
	}
	return "data:image/png;base64,c2NlbmU=", nil
}

func (g *stubGenerator) GenerateSceneVideo(_ context.Context, prompt, imageDataURI, aspectRatio string) (string, error) {
	g.mu.Lock()
	g.videoCalls = append(g.videoCalls, prompt)
	g.mu.Unlock()
	if g.onVideo != nil {
		return g.onVideo(prompt, imageDataURI, aspectRatio)
	}
	return "/static/videos/stub.mp4", nil
}

// detectiveAnalysis 2 个场景 + 1 个角色的样例分析结果
func detectiveAnalysis() *models.StoryAnalysis {
	raw := `{
	  "scenes": [
	    {"scene_title":"信件","detailed_description":"d0","characters":["Detective"],"location":"书房","time":"夜","props":["letter"],"mood":"suspense","creative_prompt_for_image":"prompt-0","transition_prompt_to_next_scene":"pan"},
	    {"scene_title":"追查","detailed_description":"d1","characters":["Detective"],"location":"街道","time":"夜","props":[],"mood":"tense","creative_prompt_for_image":"prompt-1","transition_prompt_to_next_scene":""}
	  ],
	  "characters": [
	    {"name":"Detective","description":"c0","personality_traits":["quiet"],"visual_details":["coat"],"detailed_visual_description_for_portrait":"vd-0"}
	  ]
	}`
	var a models.StoryAnalysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		panic(err)
	}
	return &a
}
