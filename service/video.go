package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"StoryProducer-server/config"
)

const defaultVideoBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// VideoClient 图生视频客户端。官方 SDK 没有覆盖视频接口，这里直接走 REST：
// 提交 predictLongRunning 任务，按固定间隔轮询 operation 直到 done，
// 再把产物下载到本地 static 目录，对外只暴露本地路径（远端链接会过期）。
type VideoClient struct {
	APIKey       string
	Model        string
	BaseURL      string
	PollInterval time.Duration
	Timeout      time.Duration
	StaticDir    string
	HTTPClient   *http.Client
}

func NewVideoClient(cfg *config.Config) *VideoClient {
	return &VideoClient{
		APIKey:       cfg.Gemini.APIKey,
		Model:        cfg.Gemini.VideoModel,
		BaseURL:      defaultVideoBaseURL,
		PollInterval: time.Duration(cfg.Gemini.PollInterval) * time.Second,
		Timeout:      30 * time.Minute,
		StaticDir:    cfg.Server.StaticDir,
		HTTPClient:   &http.Client{},
	}
}

// operation 载荷。不同版本的接口把产物挂在 generatedSamples 或 generatedVideos 下，两种都认。
type videoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []videoSample `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
		GeneratedVideos []videoSample `json:"generatedVideos"`
	} `json:"response"`
}

type videoSample struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

func (op *videoOperation) downloadURI() string {
	if op.Response == nil {
		return ""
	}
	if r := op.Response.GenerateVideoResponse; r != nil && len(r.GeneratedSamples) > 0 {
		return r.GeneratedSamples[0].Video.URI
	}
	if len(op.Response.GeneratedVideos) > 0 {
		return op.Response.GeneratedVideos[0].Video.URI
	}
	return ""
}

// Generate 提交 -> 轮询 -> 下载，返回 /static 下的本地路径
func (c *VideoClient) Generate(ctx context.Context, prompt, imageDataURI, aspectRatio string) (string, error) {
	mimeType, imageData, err := DecodeDataURI(imageDataURI)
	if err != nil {
		return "", newGenError(ErrUnknown, "无法解析输入图像: %v", err)
	}

	opName, err := c.submit(ctx, prompt, mimeType, imageData, aspectRatio)
	if err != nil {
		return "", err
	}
	log.Printf("视频任务已提交: %s，开始轮询结果...", opName)

	op, err := c.poll(ctx, opName)
	if err != nil {
		return "", err
	}

	uri := op.downloadURI()
	if uri == "" {
		if op.Error != nil && op.Error.Message != "" {
			return "", classifyTransportError(fmt.Errorf("%s", op.Error.Message))
		}
		return "", newGenError(ErrNoArtifact, "生成已完成但没有找到下载链接")
	}
	return c.download(ctx, uri)
}

func (c *VideoClient) submit(ctx context.Context, prompt, mimeType string, imageData []byte, aspectRatio string) (string, error) {
	reqBody := map[string]interface{}{
		"instances": []map[string]interface{}{
			{
				"prompt": fmt.Sprintf("Animate this scene based on the following description. The video should start with the provided image and bring it to life: %s", prompt),
				"image": map[string]interface{}{
					"bytesBase64Encoded": base64.StdEncoding.EncodeToString(imageData),
					"mimeType":           mimeType,
				},
			},
		},
		"parameters": map[string]interface{}{
			"aspectRatio": aspectRatio,
			"resolution":  "720p",
			"sampleCount": 1,
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", newGenError(ErrUnknown, "marshal request failed: %v", err)
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s", c.BaseURL, c.Model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", newGenError(ErrUnknown, "create request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPStatus(resp)
	}

	var op videoOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return "", newGenError(ErrUnknown, "decode submit response failed: %v", err)
	}
	if op.Name == "" {
		return "", newGenError(ErrNoArtifact, "提交响应缺少 operation name")
	}
	return op.Name, nil
}

// poll 每隔 PollInterval 查询一次 operation，直到 done 或超时。
// 轮询只在 provider 报完成/失败或传输层持续报错时结束，没有调用方主动取消。
func (c *VideoClient) poll(ctx context.Context, opName string) (*videoOperation, error) {
	opURL := fmt.Sprintf("%s/%s?key=%s", c.BaseURL, opName, c.APIKey)

	timeout := time.After(c.Timeout)
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return nil, newGenError(ErrUnknown, "视频生成轮询超时")
		case <-ctx.Done():
			return nil, classifyTransportError(ctx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
			if err != nil {
				log.Printf("创建轮询请求失败: %v", err)
				continue
			}
			resp, err := c.HTTPClient.Do(req)
			if err != nil {
				log.Printf("轮询网络错误(重试中): %v", err)
				continue
			}
			var op videoOperation
			if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
				resp.Body.Close()
				log.Printf("解析轮询响应失败: %v", err)
				continue
			}
			resp.Body.Close()

			if op.Done {
				return &op, nil
			}
			// 未完成，继续轮询
		}
	}
}

// download 拉取产物并落到 static/videos 下，返回对外可访问的本地路径
func (c *VideoClient) download(ctx context.Context, uri string) (string, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+c.APIKey, nil)
	if err != nil {
		return "", newGenError(ErrUnknown, "create download request failed: %v", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPStatus(resp)
	}

	dir := filepath.Join(c.StaticDir, "videos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", newGenError(ErrUnknown, "create video dir failed: %v", err)
	}
	name := uuid.NewString() + ".mp4"
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", newGenError(ErrUnknown, "create video file failed: %v", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", newGenError(ErrUnknown, "write video file failed: %v", err)
	}

	log.Printf("视频已保存: %s", path)
	return "/static/videos/" + name, nil
}

// classifyHTTPStatus 把非 200 响应归类到失败分类表
func classifyHTTPStatus(resp *http.Response) *GenError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	text := string(body)
	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(text, "RESOURCE_EXHAUSTED") {
		return newGenError(ErrQuotaExceeded, "配额已用尽，请检查你的套餐或稍后再试")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return newGenError(ErrAuthFailure, "API Key 无效或权限不足")
	}
	return newGenError(ErrUnknown, "请求失败: %d %s", resp.StatusCode, strings.TrimSpace(text))
}
