package generator

import (
	"fmt"
	"slices"

	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// Capabilities はプロバイダーごとの対応機能です。プロバイダー間の同等性は仮定せず、設定として扱います。
type Capabilities struct {
	MaxImages         int                  `json:"max_images"`
	AspectRatios      []domain.AspectRatio `json:"aspect_ratios"`
	NativeAspectRatio bool                 `json:"native_aspect_ratio"` // false の場合は受け付けても正方形で出力
	NegativePrompt    bool                 `json:"negative_prompt"`
	SafetyFilter      bool                 `json:"safety_filter"`
	ReferenceImage    bool                 `json:"reference_image"`
}

// Validate は枚数と縦横比がこのプロバイダーの範囲内かを検証します。
func (c Capabilities) Validate(count int, ar domain.AspectRatio) error {
	if count < 1 || count > c.MaxImages {
		return &domain.ValidationError{
			Field:  "image_count",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", c.MaxImages, count),
		}
	}
	if !slices.Contains(c.AspectRatios, ar) {
		return &domain.ValidationError{
			Field:  "aspect_ratio",
			Reason: fmt.Sprintf("aspect ratio %q is not supported", ar),
		}
	}
	return nil
}
