package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneOptionalFieldsOmittedWhenAbsent(t *testing.T) {
	data, err := json.Marshal(Scene{ID: "s1", Text: "dawn"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","text":"dawn"}`, string(data))
}

func TestLoadingFlagsOmittedWhenClear(t *testing.T) {
	scene, err := json.Marshal(Scene{ID: "s1", IsLoadingImage: true})
	require.NoError(t, err)
	assert.Contains(t, string(scene), `"isLoadingImage":true`)

	character, err := json.Marshal(Character{ID: "c1"})
	require.NoError(t, err)
	assert.NotContains(t, string(character), "isLoading")

	scene, err = json.Marshal(Scene{ID: "s1"})
	require.NoError(t, err)
	assert.NotContains(t, string(scene), "isLoadingImage")
}

func TestCloneIsDeep(t *testing.T) {
	p := Project{
		ID:         "p1",
		Characters: []Character{{ID: "c1", AvatarURL: StringPtr("a.png")}},
		Scenes:     []Scene{{ID: "s1", ImageURL: StringPtr("x.png"), ImagePrompt: StringPtr("p")}},
	}

	c := p.Clone()
	*c.Scenes[0].ImageURL = "changed"
	*c.Characters[0].AvatarURL = "changed"

	assert.Equal(t, "x.png", *p.Scenes[0].ImageURL)
	assert.Equal(t, "a.png", *p.Characters[0].AvatarURL)
}

func TestResetTransient(t *testing.T) {
	p := Project{
		Characters: []Character{{ID: "c1", IsLoading: true}},
		Scenes:     []Scene{{ID: "s1", IsLoadingImage: true}},
	}
	p.ResetTransient()
	assert.False(t, p.Characters[0].IsLoading)
	assert.False(t, p.Scenes[0].IsLoadingImage)
}

func TestValidAspectRatio(t *testing.T) {
	assert.True(t, ValidAspectRatio("3:4"))
	assert.False(t, ValidAspectRatio("4:3"))
}
