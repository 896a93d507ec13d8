package service

import (
	"context"
	"sync"
	"testing"

	"StoryProducer-server/models"
)

func newSeededProject(t *testing.T, store *models.ProjectStore) *models.Project {
	t.Helper()
	proj := store.CreateProject()
	scenes := []models.Scene{
		{ID: 0, Title: "信件", Characters: "Detective", ImagePrompt: "prompt-0", AspectRatio: "16:9"},
		{ID: 1, Title: "追查", Characters: "Detective, Girl", ImagePrompt: "prompt-1", AspectRatio: "16:9"},
	}
	characters := []models.Character{
		{ID: 0, Name: "Detective", VisualDescription: "vd-0", ImageURL: "data:image/png;base64,ZGV0"},
		{ID: 1, Name: "Girl", VisualDescription: "vd-1", ErrorReason: "安全策略拦截"},
	}
	if err := store.ReplaceEntities(proj.ID, scenes, characters); err != nil {
		t.Fatal(err)
	}
	return proj
}

func TestRetryPortraitUsesEditedDescription(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)

	// 相同输入产生相同结果：描述不变时重试仍失败
	gen := &stubGenerator{
		onPortrait: func(visualDescription, style string) (string, error) {
			if visualDescription == "vd-1" {
				return "", newGenError(ErrSafetyBlocked, "安全策略拦截")
			}
			return "data:image/png;base64,b2s=", nil
		},
	}
	ct := NewController(store, gen)

	if err := ct.RetryCharacterPortrait(context.Background(), proj.ID, 1); err != nil {
		t.Fatalf("RetryCharacterPortrait: %v", err)
	}
	c, _ := store.GetCharacter(proj.ID, 1)
	if c.ErrorReason == "" || c.ImageURL != "" || c.IsLoadingImage {
		t.Errorf("相同描述重试后: url=%q reason=%q loading=%v", c.ImageURL, c.ErrorReason, c.IsLoadingImage)
	}

	// 编辑描述后重试走新输入
	_ = store.PatchCharacter(proj.ID, 1, func(c *models.Character) { c.VisualDescription = "vd-1-edited" })
	if err := ct.RetryCharacterPortrait(context.Background(), proj.ID, 1); err != nil {
		t.Fatalf("RetryCharacterPortrait: %v", err)
	}
	c, _ = store.GetCharacter(proj.ID, 1)
	if c.ImageURL == "" || c.ErrorReason != "" {
		t.Errorf("编辑描述重试后应成功: url=%q reason=%q", c.ImageURL, c.ErrorReason)
	}
	if got := gen.portraitCalls; len(got) != 2 || got[1] != "vd-1-edited" {
		t.Errorf("portraitCalls = %v", got)
	}
}

func TestRetryPortraitDoesNotTouchSiblings(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)

	gen := &stubGenerator{}
	if err := NewController(store, gen).RetryCharacterPortrait(context.Background(), proj.ID, 1); err != nil {
		t.Fatal(err)
	}
	sibling, _ := store.GetCharacter(proj.ID, 0)
	if sibling.ImageURL != "data:image/png;base64,ZGV0" || sibling.ErrorReason != "" {
		t.Errorf("兄弟角色被改动: %+v", sibling)
	}
}

func TestUploadPortraitClearsFailure(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)

	gen := &stubGenerator{
		onPortrait: func(string, string) (string, error) {
			t.Fatal("上传不应触发生成调用")
			return "", nil
		},
	}
	err := NewController(store, gen).UploadCharacterPortrait(proj.ID, 1, []byte{0x89, 0x50}, "image/png")
	if err != nil {
		t.Fatalf("UploadCharacterPortrait: %v", err)
	}
	c, _ := store.GetCharacter(proj.ID, 1)
	if c.ErrorReason != "" || c.IsLoadingImage {
		t.Errorf("上传后失败状态未清除: %+v", c)
	}
	mime, data, err := DecodeDataURI(c.ImageURL)
	if err != nil || mime != "image/png" || len(data) != 2 {
		t.Errorf("上传结果 data URI 不正确: %q (%v)", c.ImageURL, err)
	}
}

func TestGenerateSceneImagePassesLiveReferences(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)

	var gotRefs []models.CharacterImage
	gen := &stubGenerator{
		onSceneImg: func(prompt, style, aspectRatio string, refs []models.CharacterImage) (string, error) {
			gotRefs = refs
			return "data:image/png;base64,c2NlbmU=", nil
		},
	}
	// 场景 1 引用 Detective 和 Girl，但 Girl 没有可用肖像
	if err := NewController(store, gen).GenerateSceneImage(context.Background(), proj.ID, 1); err != nil {
		t.Fatalf("GenerateSceneImage: %v", err)
	}
	if len(gotRefs) != 1 || gotRefs[0].Name != "Detective" {
		t.Errorf("refs = %+v, want 只有 Detective", gotRefs)
	}
	s, _ := store.GetScene(proj.ID, 1)
	if s.ImageURL == "" || s.IsLoadingImage || s.ErrorReason != "" {
		t.Errorf("生图后场景状态不正确: %+v", s)
	}
}

func TestGenerateSceneImageFailureIsContained(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)
	_ = store.PatchScene(proj.ID, 0, func(s *models.Scene) { s.ImageURL = "data:image/png;base64,b2xk" })

	gen := &stubGenerator{
		onSceneImg: func(string, string, string, []models.CharacterImage) (string, error) {
			return "", newGenError(ErrNoArtifact, "模型未返回图片")
		},
	}
	if err := NewController(store, gen).GenerateSceneImage(context.Background(), proj.ID, 1); err != nil {
		t.Fatalf("GenerateSceneImage: %v", err)
	}
	s, _ := store.GetScene(proj.ID, 1)
	if s.ErrorReason != "模型未返回图片" || s.ImageURL != "" || s.IsLoadingImage {
		t.Errorf("失败场景状态: %+v", s)
	}
	sibling, _ := store.GetScene(proj.ID, 0)
	if sibling.ImageURL == "" || sibling.ErrorReason != "" {
		t.Errorf("兄弟场景被波及: %+v", sibling)
	}
	p, _ := store.GetProject(proj.ID)
	if p.Error != "" {
		t.Errorf("单实体失败不应写项目级错误: %q", p.Error)
	}
}

func TestSceneImageLastWriteWins(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)

	slowStarted := make(chan struct{})
	fastDone := make(chan struct{})
	call := 0
	var mu sync.Mutex
	gen := &stubGenerator{}
	gen.onSceneImg = func(string, string, string, []models.CharacterImage) (string, error) {
		mu.Lock()
		call++
		mine := call
		mu.Unlock()
		if mine == 1 {
			close(slowStarted)
			<-fastDone // 第一次调用等第二次写回后才返回
			return "data:image/png;base64,c2xvdw==", nil
		}
		return "data:image/png;base64,ZmFzdA==", nil
	}
	ct := NewController(store, gen)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = ct.GenerateSceneImage(context.Background(), proj.ID, 0)
	}()
	<-slowStarted
	if err := ct.GenerateSceneImage(context.Background(), proj.ID, 0); err != nil {
		t.Fatal(err)
	}
	close(fastDone)
	wg.Wait()

	// 后落定的调用是最终状态
	s, _ := store.GetScene(proj.ID, 0)
	if s.ImageURL != "data:image/png;base64,c2xvdw==" {
		t.Errorf("最终 ImageURL = %q, want 后落定的结果", s.ImageURL)
	}
}

func TestGenerateSceneVideoSkipsWithoutImage(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)
	_ = store.PatchScene(proj.ID, 0, func(s *models.Scene) { s.ErrorReason = "生图失败" })

	gen := &stubGenerator{
		onVideo: func(string, string, string) (string, error) {
			t.Fatal("前置条件不满足时不应发起视频调用")
			return "", nil
		},
	}
	if err := NewController(store, gen).GenerateSceneVideo(context.Background(), proj.ID, 0); err != nil {
		t.Fatalf("GenerateSceneVideo: %v", err)
	}
	s, _ := store.GetScene(proj.ID, 0)
	if s.IsLoadingVideo || s.VideoURL != "" || s.VideoErrorReason != "" {
		t.Errorf("静默跳过后场景不应有任何视频状态变化: %+v", s)
	}
}

func TestGenerateSceneVideoFailureKeepsPriorVideo(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)
	_ = store.PatchScene(proj.ID, 0, func(s *models.Scene) {
		s.ImageURL = "data:image/png;base64,aW1n"
		s.VideoURL = "/static/videos/old.mp4"
	})

	gen := &stubGenerator{
		onVideo: func(string, string, string) (string, error) {
			return "", newGenError(ErrQuotaExceeded, "配额耗尽")
		},
	}
	if err := NewController(store, gen).GenerateSceneVideo(context.Background(), proj.ID, 0); err != nil {
		t.Fatalf("GenerateSceneVideo: %v", err)
	}
	s, _ := store.GetScene(proj.ID, 0)
	if s.VideoURL != "/static/videos/old.mp4" {
		t.Errorf("失败不应覆盖已有视频: %q", s.VideoURL)
	}
	if s.VideoErrorReason != "配额耗尽" || s.IsLoadingVideo {
		t.Errorf("失败状态未记录: %+v", s)
	}
}

func TestGenerateSceneVideoSuccess(t *testing.T) {
	store := models.NewProjectStore()
	proj := newSeededProject(t, store)
	_ = store.PatchScene(proj.ID, 0, func(s *models.Scene) {
		s.ImageURL = "data:image/png;base64,aW1n"
		s.VideoErrorReason = "上次失败"
	})

	gen := &stubGenerator{}
	if err := NewController(store, gen).GenerateSceneVideo(context.Background(), proj.ID, 0); err != nil {
		t.Fatalf("GenerateSceneVideo: %v", err)
	}
	s, _ := store.GetScene(proj.ID, 0)
	if s.VideoURL != "/static/videos/stub.mp4" || s.IsLoadingVideo || s.VideoErrorReason != "" {
		t.Errorf("视频生成后状态: %+v", s)
	}
}
