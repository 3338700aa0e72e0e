package domain

import (
	"fmt"
	"strings"
)

// Provider は画像生成を担当するプロバイダーの識別子です。
type Provider string

const (
	// ProviderPrimary はAPIキー認証が必要なホスト型モデル (Imagen / Gemini) です。
	ProviderPrimary Provider = "imagen"
	// ProviderFallback は認証不要の公開画像API (Pollinations) です。
	ProviderFallback Provider = "pollinations"
)

// DisplayName はキャプションやファイル名に使うプロバイダー表記を返します。
func (p Provider) DisplayName() string {
	switch p {
	case ProviderPrimary:
		return "Google Imagen"
	case ProviderFallback:
		return "Pollinations"
	default:
		return string(p)
	}
}

// ParseProvider は識別子を Provider に変換します。
// UIラベルの部分一致ではなく、識別子の完全一致のみを受け付けます。
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderPrimary, ProviderFallback:
		return p, nil
	}
	return "", &ValidationError{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", s)}
}

// AspectRatio は出力画像の縦横比です。
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "4:3"
)

// AllAspectRatios は既知の縦横比を表示順に並べたものです。
var AllAspectRatios = []AspectRatio{AspectSquare, AspectWide, AspectPortrait, AspectLandscape}

// ParseAspectRatio は "16:9" 形式の文字列を AspectRatio に変換します。空文字は 1:1 とみなします。
func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AspectSquare, nil
	}
	for _, ar := range AllAspectRatios {
		if string(ar) == s {
			return ar, nil
		}
	}
	return "", &ValidationError{Field: "aspect_ratio", Reason: fmt.Sprintf("unsupported aspect ratio %q", s)}
}

// Dimensions は長辺を base とした幅と高さを返します。
func (a AspectRatio) Dimensions(base int) (width, height int) {
	switch a {
	case AspectWide:
		return base, base * 9 / 16
	case AspectPortrait:
		return base * 9 / 16, base
	case AspectLandscape:
		return base, base * 3 / 4
	default:
		return base, base
	}
}

// StyleKey はプロンプトに付与する画風の識別子です。
type StyleKey string

const (
	StylePhotorealistic StyleKey = "photorealistic"
	StyleCinematic      StyleKey = "cinematic"
	Style3DRender       StyleKey = "3d-render"
	StyleAnime          StyleKey = "anime"
	StyleOilPainting    StyleKey = "oil-painting"
	StyleDigitalArt     StyleKey = "digital-art"
	StyleNone           StyleKey = "none"
)

// SafetyLevel はホスト型モデルに渡す安全フィルターの強度です。
type SafetyLevel string

const (
	SafetyBlockLowAndAbove    SafetyLevel = "block-low-and-above"
	SafetyBlockMediumAndAbove SafetyLevel = "block-medium-and-above"
	SafetyBlockOnlyHigh       SafetyLevel = "block-only-high"
	SafetyBlockNone           SafetyLevel = "block-none"
)

// ParseSafetyLevel は文字列を SafetyLevel に変換します。空文字は未指定 (プロバイダー既定値) です。
func ParseSafetyLevel(s string) (SafetyLevel, error) {
	switch l := SafetyLevel(strings.ToLower(strings.TrimSpace(s))); l {
	case "", SafetyBlockLowAndAbove, SafetyBlockMediumAndAbove, SafetyBlockOnlyHigh, SafetyBlockNone:
		return l, nil
	}
	return "", &ValidationError{Field: "safety_level", Reason: fmt.Sprintf("unknown safety level %q", s)}
}

// GenerationRequest はUIから渡される1回分の画像生成要求です。
type GenerationRequest struct {
	RawPrompt      string
	Style          StyleKey
	NegativePrompt string
	AspectRatio    AspectRatio
	ImageCount     int
	Provider       Provider
	SafetyLevel    SafetyLevel
	Seed           *int64 // 公開APIのシード起点。nil の場合は 0 から連番
	ReferenceImage []byte
	ReferenceURL   string // ReferenceImage が空の場合のみ参照
}

// WithProvider はプロバイダーだけを差し替えたコピーを返します。
// フォールバックはユーザーが明示的に選んだ場合にのみ、このコピーで再実行します。
func (r GenerationRequest) WithProvider(p Provider) GenerationRequest {
	r.Provider = p
	return r
}

// HasReference は参照画像が指定されているかを返します。
func (r GenerationRequest) HasReference() bool {
	return len(r.ReferenceImage) > 0 || r.ReferenceURL != ""
}

// Prompt は Prompt Builder の出力です。ネガティブプロンプトは本文に混ぜず別に保持します。
type Prompt struct {
	Text     string
	Negative string
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Index    int
	Data     []byte
	MimeType string
	UsedSeed int64 // 戻り値は情報欠落を防ぐため int64
}
