/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entitycache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	p, err := ParsePath("infos.author")
	require.NoError(t, err)
	assert.Equal(t, []string{"infos", "author"}, p.Segments())
	assert.Equal(t, "infos.author", p.String())

	for _, bad := range []string{"", ".", "a.", ".a", "a..b"} {
		_, err := ParsePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestPathRewriteCopiesOnlyChangedBranches(t *testing.T) {
	p, err := ParsePath("infos.author")
	require.NoError(t, err)

	other := map[string]any{"x": 1}
	infos := map[string]any{"author": map[string]any{"id": "a"}, "other": other}
	e := Entity{"id": "b", "infos": infos}

	out, changed := p.rewrite(e, func(ref Entity) (any, bool) {
		return map[string]any{"id": ref["id"], "resolved": true}, true
	})
	require.True(t, changed)

	got := out.(Entity)
	assert.Equal(t, true, got["infos"].(map[string]any)["author"].(map[string]any)["resolved"])
	assert.NotContains(t, infos["author"].(map[string]any), "resolved")
	assert.Equal(t, other, got["infos"].(map[string]any)["other"])
}

func TestPathRewriteIgnoresMissingSegments(t *testing.T) {
	p, err := ParsePath("infos.author")
	require.NoError(t, err)

	for _, e := range []Entity{
		{"id": "no infos"},
		{"id": "nil infos", "infos": nil},
		{"id": "scalar infos", "infos": "text"},
		{"id": "scalar author", "infos": map[string]any{"author": 3}},
	} {
		out, changed := p.rewrite(e, func(Entity) (any, bool) { return nil, true })
		assert.False(t, changed, e["id"])
		assert.Equal(t, e, out)
	}
}

func TestPathExtract(t *testing.T) {
	p, err := ParsePath("authors")
	require.NoError(t, err)

	found := p.extract([]Entity{
		{"id": "b1", "authors": []any{
			map[string]any{"id": "a1"},
			map[string]any{"name": "no key"},
			map[string]any{"id": "a2"},
		}},
		{"id": "b2", "authors": map[string]any{"id": "a3"}},
		{"id": "b3"},
	}, "id")

	ids := make([]any, 0, len(found))
	for _, e := range found {
		ids = append(ids, e["id"])
	}
	assert.Equal(t, []any{"a1", "a2", "a3"}, ids)
}
