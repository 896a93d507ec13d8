package models

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProjectNotFound   = errors.New("project not found")
	ErrSceneNotFound     = errors.New("scene not found")
	ErrCharacterNotFound = errors.New("character not found")
)

// ProjectStore 内存中的项目存储，是系统里唯一的共享可变状态。
// 所有写操作都以单条记录为粒度（读出-修改-写回），兄弟记录不受影响；
// 读操作返回深拷贝快照，调用方不会拿到内部指针。
type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*Project
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[string]*Project)}
}

// CreateProject 创建空项目，全局设置取默认值
func (s *ProjectStore) CreateProject() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	p := &Project{
		ID:          uuid.NewString(),
		Scenes:      []Scene{},
		Characters:  []Character{},
		Style:       DefaultStyle,
		SceneCount:  DefaultSceneCount,
		AspectRatio: DefaultAspectRatio,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.projects[p.ID] = p
	return snapshot(p)
}

// GetProject 返回项目快照
func (s *ProjectStore) GetProject(id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return snapshot(p), nil
}

// ListProjects 全部项目快照，按创建时间排序不保证
func (s *ProjectStore) ListProjects() []*Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, snapshot(p))
	}
	return out
}

func (s *ProjectStore) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

// PatchProject 对项目顶层字段做一次修改（scenario、style 等直接编辑）
func (s *ProjectStore) PatchProject(id string, apply func(*Project)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	apply(p)
	p.UpdatedAt = time.Now()
	return nil
}

// ReplaceEntities 一次分析成功后整体替换场景与角色列表，不合并旧数据
func (s *ProjectStore) ReplaceEntities(id string, scenes []Scene, characters []Character) error {
	return s.PatchProject(id, func(p *Project) {
		p.Scenes = scenes
		p.Characters = characters
		p.Error = ""
	})
}

// PatchScene 读出-修改-写回单个场景记录
func (s *ProjectStore) PatchScene(projectID string, sceneID int, apply func(*Scene)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	for i := range p.Scenes {
		if p.Scenes[i].ID == sceneID {
			apply(&p.Scenes[i])
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrSceneNotFound
}

// PatchCharacter 读出-修改-写回单个角色记录
func (s *ProjectStore) PatchCharacter(projectID string, charID int, apply func(*Character)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return ErrProjectNotFound
	}
	for i := range p.Characters {
		if p.Characters[i].ID == charID {
			apply(&p.Characters[i])
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrCharacterNotFound
}

// GetScene 单个场景快照
func (s *ProjectStore) GetScene(projectID string, sceneID int) (*Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	for i := range p.Scenes {
		if p.Scenes[i].ID == sceneID {
			sc := p.Scenes[i]
			return &sc, nil
		}
	}
	return nil, ErrSceneNotFound
}

// GetCharacter 单个角色快照
func (s *ProjectStore) GetCharacter(projectID string, charID int) (*Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	for i := range p.Characters {
		if p.Characters[i].ID == charID {
			c := p.Characters[i]
			return &c, nil
		}
	}
	return nil, ErrCharacterNotFound
}

// ImportDocument 用导入文档整体覆盖项目内容，缺失字段回退默认值
func (s *ProjectStore) ImportDocument(id string, doc ProjectDocument) error {
	doc.ApplyDefaults()
	return s.PatchProject(id, func(p *Project) {
		p.Scenario = doc.Scenario
		p.Scenes = doc.Scenes
		p.Characters = doc.Characters
		p.Style = doc.Style
		p.SceneCount = doc.SceneCount
		p.AspectRatio = doc.AspectRatio
		p.Error = ""
	})
}

// snapshot 深拷贝（场景/角色均为纯值字段，复制切片即可）
func snapshot(p *Project) *Project {
	cp := *p
	cp.Scenes = append([]Scene(nil), p.Scenes...)
	cp.Characters = append([]Character(nil), p.Characters...)
	if cp.Scenes == nil {
		cp.Scenes = []Scene{}
	}
	if cp.Characters == nil {
		cp.Characters = []Character{}
	}
	return &cp
}
