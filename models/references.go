package models

import "strings"

// SceneReferences 计算场景生图时应携带的角色参照图。
// 按场景的角色名列表（逗号分隔，逐项 trim）做精确匹配，
// 只收录当前持有可用图片（生成或上传，且非失败）的角色。
// 返回顺序跟随角色列表顺序，而非场景内名字顺序。
// 同名角色会全部命中，不做消歧。
func SceneReferences(scene *Scene, characters []Character) []CharacterImage {
	names := strings.Split(scene.Characters, ",")
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			wanted[n] = true
		}
	}

	var refs []CharacterImage
	for i := range characters {
		c := &characters[i]
		if wanted[c.Name] && c.HasImage() {
			refs = append(refs, CharacterImage{Name: c.Name, DataURI: c.ImageURL})
		}
	}
	return refs
}
