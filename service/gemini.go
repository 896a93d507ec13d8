package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"StoryProducer-server/config"
	"StoryProducer-server/models"
)

// GeminiClient 基于官方 SDK 的文本/分析/图片客户端；视频走 VideoClient（REST + 轮询）。
type GeminiClient struct {
	client     *genai.Client
	textModel  string
	imageModel string
	video      *VideoClient
}

func NewGeminiClient(cfg *config.Config) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Gemini.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client:     client,
		textModel:  cfg.Gemini.TextModel,
		imageModel: cfg.Gemini.ImageModel,
		video:      NewVideoClient(cfg),
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) GenerateStoryFromIdea(ctx context.Context, idea, genre, style string, length int) (string, error) {
	prompt := fmt.Sprintf(`You are an expert screenwriter and novelist. Turn the following simple idea into a short, engaging story.

Idea: %q
Genre: %s
Writing style: %s
Approximate length: about %d characters.

Write a complete story based on these inputs, with attention to character building, plot and dialogue. The story should be ready for visual production.`, idea, genre, style, length)

	model := c.client.GenerativeModel(c.textModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyAPIError(err)
	}
	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", newGenError(ErrEmptyResult, "模型没有返回故事文本")
	}
	return text, nil
}

func (c *GeminiClient) GenerateStoryAnalysis(ctx context.Context, scenario string, sceneCount int) (*models.StoryAnalysis, error) {
	prompt := fmt.Sprintf(`You are an assistant specialized in analyzing narrative text for visual production.
Based on the following scenario, do two things:
1. Break the text into a structured set of scenes (about %d scenes).
2. Extract the main characters of the story with a detailed description of each.

Scenario: %q

Rules for scenes:
- Preserve the order of events.
- Split the text into logical scenes.
- For each scene, provide a title, detailed description, characters, location, time, notable props, and overall mood.
- Most importantly: write a creative, detailed image-generation prompt for the scene. It must cover the setting, characters, camera angle and lighting for a cinematic result.
- Write a prompt describing the visual transition to the next scene (leave it empty for the last scene).

Rules for characters:
- Extract the main characters only.
- Give a brief description of each character.
- Extract 3-5 notable personality traits.
- Extract 3-5 distinctive visual details (clothing, features).
- Most importantly: write a precise, detailed visual description usable to generate a portrait of the character.

The final output must be a single JSON object with the properties "scenes" and "characters".`, sceneCount, scenario)

	model := c.client.GenerativeModel(c.textModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = storyAnalysisSchema()

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifyAPIError(err)
	}
	raw := extractText(resp)
	return ParseStoryAnalysis(raw)
}

// ParseStoryAnalysis 剥掉可能包裹的 markdown 围栏后做严格解码。
// 解析失败 -> MalformedOutput；解析成功但载荷为空 -> EmptyResult；
// 缺少两个数组之一 -> MalformedOutput。
func ParseStoryAnalysis(raw string) (*models.StoryAnalysis, error) {
	cleaned := stripJSONFences(raw)
	if strings.TrimSpace(cleaned) == "" || strings.TrimSpace(cleaned) == "null" {
		return nil, newGenError(ErrEmptyResult, "分析返回了空载荷")
	}
	// 先解到通用 map 检查两个数组的存在性，再严格解码
	var shape map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &shape); err != nil {
		return nil, newGenError(ErrMalformedOutput, "无法解析分析结果: %v", err)
	}
	var analysis models.StoryAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, newGenError(ErrMalformedOutput, "无法解析分析结果: %v", err)
	}
	if analysis.Scenes == nil || analysis.Characters == nil {
		return nil, newGenError(ErrMalformedOutput, "分析结果缺少 scenes 或 characters 数组")
	}
	return &analysis, nil
}

func (c *GeminiClient) GenerateCharacterPortrait(ctx context.Context, visualDescription, style string) (string, error) {
	prompt := fmt.Sprintf(`Generate a high-quality character portrait concept art in a %q style. The character is described as: %q. The portrait should focus on the character's appearance, personality, and key visual details.`, style, visualDescription)

	model := c.client.GenerativeModel(c.imageModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyAPIError(err)
	}
	return extractImage(resp)
}

func (c *GeminiClient) GenerateStyledSceneImage(ctx context.Context, prompt, style, aspectRatio string, refs []models.CharacterImage) (string, error) {
	fullPrompt := fmt.Sprintf(`Generate a cinematic concept art image in a %q style with a %q aspect ratio. Scene description: %s.`, style, aspectRatio, prompt)
	if len(refs) > 0 {
		names := make([]string, 0, len(refs))
		for _, r := range refs {
			names = append(names, r.Name)
		}
		fullPrompt += fmt.Sprintf(" Use the attached character images as the primary reference for the appearance of: %s.", strings.Join(names, ", "))
	}

	parts := []genai.Part{genai.Text(fullPrompt)}
	for _, r := range refs {
		mimeType, data, err := DecodeDataURI(r.DataURI)
		if err != nil {
			// 单张参照图坏了不应拖垮整个场景生成，跳过即可
			continue
		}
		parts = append(parts, genai.Blob{MIMEType: mimeType, Data: data})
	}

	model := c.client.GenerativeModel(c.imageModel)
	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyAPIError(err)
	}
	return extractImage(resp)
}

func (c *GeminiClient) GenerateSceneVideo(ctx context.Context, prompt, imageDataURI, aspectRatio string) (string, error) {
	return c.video.Generate(ctx, prompt, imageDataURI, aspectRatio)
}

// ============================================================================
// 响应提取与失败分类
// ============================================================================

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

// extractImage 取第一块 inline 图像数据并编成 data URI；
// 没有图像时按候选的 finish reason 归类失败原因。
func extractImage(resp *genai.GenerateContentResponse) (string, error) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				mimeType := blob.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return EncodeDataURI(mimeType, blob.Data), nil
			}
		}
	}
	return "", classifyImageFailure(resp)
}

func classifyImageFailure(resp *genai.GenerateContentResponse) *GenError {
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		if cand.FinishReason == genai.FinishReasonSafety {
			for _, rating := range cand.SafetyRatings {
				if rating.Probability != genai.HarmProbabilityNegligible && rating.Probability != genai.HarmProbabilityLow {
					return newGenError(ErrSafetyBlocked, "因内容政策被拦截 (%s)", rating.Category)
				}
			}
			return newGenError(ErrSafetyBlocked, "图片生成因内容政策被拦截，请尝试修改 prompt")
		}
		if cand.FinishReason != genai.FinishReasonStop && cand.FinishReason != genai.FinishReasonUnspecified {
			return newGenError(ErrAbnormalStop, "生成中止: %s", cand.FinishReason)
		}
	}
	return newGenError(ErrNoArtifact, "接口没有返回图像数据")
}

// classifyAPIError SDK 调用错误归类：429 -> 配额；401/403 -> 鉴权；其余按文本归类
func classifyAPIError(err error) *GenError {
	if apiErr, ok := err.(*googleapi.Error); ok {
		switch apiErr.Code {
		case 429:
			return newGenError(ErrQuotaExceeded, "配额已用尽，请检查你的套餐或稍后再试")
		case 401, 403:
			return newGenError(ErrAuthFailure, "API Key 无效或权限不足")
		}
	}
	return classifyTransportError(err)
}

func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ============================================================================
// data URI 编解码（肖像/场景图在系统内统一用 data URI 表示）
// ============================================================================

func EncodeDataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func DecodeDataURI(uri string) (mimeType string, data []byte, err error) {
	rest, found := strings.CutPrefix(uri, "data:")
	if !found {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, fmt.Errorf("malformed data URI")
	}
	mimeType = strings.TrimSuffix(header, ";base64")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URI failed: %w", err)
	}
	return mimeType, data, nil
}

// storyAnalysisSchema 分析调用声明的输出形状（两数组对象）
func storyAnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scenes": {
				Type:        genai.TypeArray,
				Description: "Scenes extracted from the story.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"scene_title":                     {Type: genai.TypeString},
						"detailed_description":            {Type: genai.TypeString},
						"characters":                      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"location":                        {Type: genai.TypeString},
						"time":                            {Type: genai.TypeString},
						"props":                           {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"mood":                            {Type: genai.TypeString},
						"creative_prompt_for_image":       {Type: genai.TypeString},
						"transition_prompt_to_next_scene": {Type: genai.TypeString},
					},
					Required: []string{"scene_title", "detailed_description", "characters", "location", "time", "props", "mood", "creative_prompt_for_image"},
				},
			},
			"characters": {
				Type:        genai.TypeArray,
				Description: "Main characters of the story.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":                {Type: genai.TypeString},
						"description":         {Type: genai.TypeString},
						"personality_traits":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"visual_details":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
						"detailed_visual_description_for_portrait": {Type: genai.TypeString},
					},
					Required: []string{"name", "description", "personality_traits", "visual_details", "detailed_visual_description_for_portrait"},
				},
			},
		},
		Required: []string{"scenes", "characters"},
	}
}
