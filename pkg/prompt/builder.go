package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/prompt-image-kit/pkg/domain"
)

const separator = ", "

// Builder はユーザー入力と画風修飾句からプロンプトを組み立てます。状態は持ちません。
type Builder struct {
	styles StyleTable
}

// NewBuilder は画風の対応表を注入して Builder を生成します。
func NewBuilder(styles StyleTable) (*Builder, error) {
	if styles == nil {
		return nil, fmt.Errorf("styles is required")
	}
	return &Builder{styles: styles}, nil
}

// Styles は注入された対応表を返します。
func (b *Builder) Styles() StyleTable {
	return b.styles
}

// BuildPrompt は生のプロンプトの後ろに画風の修飾句を付け足します。
// ユーザーのテキストは前後の空白も含めて一切変更せず、ネガティブプロンプトは本文と混ぜずに渡します。
func (b *Builder) BuildPrompt(rawPrompt string, style domain.StyleKey, negativePrompt string) (domain.Prompt, error) {
	if strings.TrimSpace(rawPrompt) == "" {
		return domain.Prompt{}, &domain.ValidationError{Field: "prompt", Reason: "prompt must not be empty"}
	}

	if style == "" {
		style = domain.StyleNone
	}
	suffix, ok := b.styles[style]
	if !ok {
		return domain.Prompt{}, &domain.ValidationError{Field: "style", Reason: fmt.Sprintf("unknown style %q", style)}
	}

	text := rawPrompt
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		text += separator + suffix
	}

	return domain.Prompt{
		Text:     text,
		Negative: strings.TrimSpace(negativePrompt),
	}, nil
}
