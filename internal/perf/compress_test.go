package perf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONBodyKeepsEmptyContainersByDefault(t *testing.T) {
	in := map[string]any{
		"items":      []any{},
		"pagination": map[string]any{"page": 1, "total": 0},
		"bio":        nil,
	}
	out, ok := JSONBody(in, false).(map[string]any)
	require.True(t, ok)
	// 空列表页必须保留 items 键
	require.Contains(t, out, "items")
	require.Len(t, out["items"], 0)
	require.Contains(t, out, "pagination")
	require.NotContains(t, out, "bio")
}

func TestJSONBodyCompactDropsEmpties(t *testing.T) {
	in := map[string]any{
		"id":       1,
		"username": "tanvi",
		"bio":      nil,
		"tags":     []any{},
		"extra":    map[string]any{},
		"nested": map[string]any{
			"keep": "yes",
			"drop": nil,
		},
	}
	out, ok := JSONBody(in, true).(map[string]any)
	require.True(t, ok)
	require.NotContains(t, out, "bio")
	require.NotContains(t, out, "tags")
	require.NotContains(t, out, "extra")
	require.Equal(t, "tanvi", out["username"])
	nested := out["nested"].(map[string]any)
	require.Equal(t, "yes", nested["keep"])
	require.NotContains(t, nested, "drop")
}

func TestJSONBodyTrimsTimestampZ(t *testing.T) {
	in := map[string]any{
		"created_at": "2026-08-28T10:00:00Z",
		"last_login": "2026-08-28T09:30:00Z",
		"title":      "ends with Z",
	}
	out := JSONBody(in, false).(map[string]any)
	require.Equal(t, "2026-08-28T10:00:00", out["created_at"])
	require.Equal(t, "2026-08-28T09:30:00", out["last_login"])
	// 非时间戳字段不受影响
	require.Equal(t, "ends with Z", out["title"])
}

func TestJSONBodyHandlesStructsAndLists(t *testing.T) {
	type item struct {
		Name  string  `json:"name"`
		Note  *string `json:"note"`
		Score float64 `json:"score"`
	}
	out := JSONBody([]item{{Name: "top", Score: 0.92}}, false).([]any)
	require.Len(t, out, 1)
	first := out[0].(map[string]any)
	require.NotContains(t, first, "note")
	require.Equal(t, "top", first["name"])
}

func TestStripKeysDeep(t *testing.T) {
	in := map[string]any{
		"dashboard": map[string]any{
			"wardrobe": map[string]any{
				"recent": []any{
					map[string]any{"name": "coat", "additional_images": []any{"a.jpg"}},
				},
			},
			"image_urls": []any{"b.jpg"},
		},
	}
	out := StripKeys(in, "additional_images", "image_urls").(map[string]any)
	dash := out["dashboard"].(map[string]any)
	require.NotContains(t, dash, "image_urls")
	item := dash["wardrobe"].(map[string]any)["recent"].([]any)[0].(map[string]any)
	require.NotContains(t, item, "additional_images")
	require.Equal(t, "coat", item["name"])
}

func TestClampPage(t *testing.T) {
	_, _, err := ClampPage(0, 20)
	require.ErrorIs(t, err, ErrBadPage)
	_, _, err = ClampPage(1, 0)
	require.ErrorIs(t, err, ErrBadPage)

	page, per, err := ClampPage(2, 500)
	require.NoError(t, err)
	require.Equal(t, 2, page)
	require.Equal(t, 100, per)
}
