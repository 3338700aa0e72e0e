package generator

import (
	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/utils"
	"google.golang.org/genai"
)

// seedAt は起点シードに i を足したシードを返すのだ。
// 同じプロンプトでもインデックスごとに異なる画像になるようにするためなのだ。
func seedAt(base *int64, i int) int64 {
	return utils.DereferenceSeed(base) + int64(i)
}

// safetyFilterLevel はドメインの安全レベルを SDK の値に変換します。
func safetyFilterLevel(l domain.SafetyLevel) genai.SafetyFilterLevel {
	switch l {
	case domain.SafetyBlockLowAndAbove:
		return genai.SafetyFilterLevelBlockLowAndAbove
	case domain.SafetyBlockMediumAndAbove:
		return genai.SafetyFilterLevelBlockMediumAndAbove
	case domain.SafetyBlockOnlyHigh:
		return genai.SafetyFilterLevelBlockOnlyHigh
	case domain.SafetyBlockNone:
		return genai.SafetyFilterLevelBlockNone
	}
	return ""
}
