package prompt

import (
	"strings"
	"testing"

	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(DefaultStyleTable())
	require.NoError(t, err)
	return b
}

func TestBuilder_BuildPrompt(t *testing.T) {
	b := newTestBuilder(t)

	t.Run("修飾句は末尾に付け足されるだけなのだ", func(t *testing.T) {
		for _, key := range b.Styles().Keys() {
			p, err := b.BuildPrompt("a futuristic city in neon lights", key, "")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(p.Text, "a futuristic city in neon lights"), "style %s", key)
		}
	})

	t.Run("画風を指定すると区切り文字の後に修飾句が続くのだ", func(t *testing.T) {
		p, err := b.BuildPrompt("a cat", domain.StyleCinematic, "")
		require.NoError(t, err)
		assert.Equal(t, "a cat, cinematic lighting, dramatic atmosphere, movie scene, 4k", p.Text)
	})

	t.Run("StyleNone と未指定はプロンプトそのままなのだ", func(t *testing.T) {
		p, err := b.BuildPrompt("a cat", domain.StyleNone, "")
		require.NoError(t, err)
		assert.Equal(t, "a cat", p.Text)

		p, err = b.BuildPrompt("a cat", "", "")
		require.NoError(t, err)
		assert.Equal(t, "a cat", p.Text)
	})

	t.Run("前後に空白があっても生のプロンプトをそのまま含むのだ", func(t *testing.T) {
		for _, raw := range []string{"  a cat  ", "\ta cat\n", " a  cat"} {
			for _, key := range b.Styles().Keys() {
				p, err := b.BuildPrompt(raw, key, "")
				require.NoError(t, err)
				assert.True(t, strings.HasPrefix(p.Text, raw), "raw=%q style=%s", raw, key)
			}
		}
	})

	t.Run("ネガティブプロンプトは本文に混ざらないのだ", func(t *testing.T) {
		p, err := b.BuildPrompt("a cat", domain.StyleAnime, " blurry ")
		require.NoError(t, err)
		assert.Equal(t, "blurry", p.Negative)
		assert.NotContains(t, p.Text, "blurry")
	})
}

func TestBuilder_BuildPrompt_Validation(t *testing.T) {
	b := newTestBuilder(t)

	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := b.BuildPrompt(raw, domain.StylePhotorealistic, "x")
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, "raw=%q", raw)
		assert.Equal(t, "prompt", ve.Field)
	}

	_, err := b.BuildPrompt("a cat", domain.StyleKey("vaporwave"), "")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "style", ve.Field)
}

func TestNewBuilder(t *testing.T) {
	_, err := NewBuilder(nil)
	assert.Error(t, err)

	custom := StyleTable{domain.StyleKey("sketch"): "pencil sketch"}
	b, err := NewBuilder(custom)
	require.NoError(t, err)
	p, err := b.BuildPrompt("a tree", "sketch", "")
	require.NoError(t, err)
	assert.Equal(t, "a tree, pencil sketch", p.Text)
	assert.Equal(t, []domain.StyleKey{"sketch"}, b.Styles().Keys())
}
