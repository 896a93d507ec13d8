package models

import (
	"reflect"
	"testing"
)

func TestSceneReferences(t *testing.T) {
	characters := []Character{
		{ID: 0, Name: "Amira", ImageURL: "data:image/png;base64,AAA"},
		{ID: 1, Name: "Karim", ImageURL: ""},                                            // 从未生成
		{ID: 2, Name: "Layla", ImageURL: "", ErrorReason: "blocked"},                    // 生成失败
		{ID: 3, Name: "Omar", ImageURL: "data:image/jpeg;base64,BBB"},                   // 上传的图
		{ID: 4, Name: "Ziad", ImageURL: "data:image/png;base64,CCC", ErrorReason: "x"},  // 有图但带失败标记
	}

	tests := []struct {
		name  string
		scene Scene
		want  []CharacterImage
	}{
		{
			name:  "匹配到有图角色",
			scene: Scene{Characters: "Amira, Omar"},
			want: []CharacterImage{
				{Name: "Amira", DataURI: "data:image/png;base64,AAA"},
				{Name: "Omar", DataURI: "data:image/jpeg;base64,BBB"},
			},
		},
		{
			name:  "顺序跟随角色列表而非场景名单",
			scene: Scene{Characters: "Omar, Amira"},
			want: []CharacterImage{
				{Name: "Amira", DataURI: "data:image/png;base64,AAA"},
				{Name: "Omar", DataURI: "data:image/jpeg;base64,BBB"},
			},
		},
		{
			name:  "失败或缺图的角色不参与",
			scene: Scene{Characters: "Karim, Layla, Ziad"},
			want:  nil,
		},
		{
			name:  "名字精确匹配且要求 trim",
			scene: Scene{Characters: "  Amira ,unknown, amira"},
			want: []CharacterImage{
				{Name: "Amira", DataURI: "data:image/png;base64,AAA"},
			},
		},
		{
			name:  "空名单",
			scene: Scene{Characters: ""},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SceneReferences(&tt.scene, characters)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SceneReferences() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// 纯函数：同样输入重复调用结果一致，且不改动入参
func TestSceneReferencesPure(t *testing.T) {
	characters := []Character{
		{ID: 0, Name: "Amira", ImageURL: "data:image/png;base64,AAA"},
		{ID: 1, Name: "Omar", ImageURL: "data:image/png;base64,BBB"},
	}
	scene := Scene{Characters: "Omar, Amira"}

	first := SceneReferences(&scene, characters)
	for i := 0; i < 10; i++ {
		got := SceneReferences(&scene, characters)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d diverged: %+v vs %+v", i, got, first)
		}
	}
	if scene.Characters != "Omar, Amira" {
		t.Errorf("scene mutated: %q", scene.Characters)
	}
	if characters[0].Name != "Amira" || characters[1].Name != "Omar" {
		t.Errorf("characters mutated: %+v", characters)
	}
}
