package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/imgutil"
	"google.golang.org/genai"
)

// fetchImageData は http(s) の公開URLのみを1回だけ取得します。
func (c *ImageCore) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("http(s) のURLのみ指定できます: %q", rawURL)
	}
	if safe, err := c.httpClient.IsSafeURL(rawURL); !safe {
		if err == nil {
			err = errors.New("blocked by network policy")
		}
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return fetchOnce(ctx, c.httpClient, rawURL)
}

// prepareReference は画像であることを確認し、可能なら JPEG に圧縮します。
func prepareReference(data []byte) ([]byte, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, &domain.ValidationError{Field: "reference_image", Reason: fmt.Sprintf("not an image (detected %s)", mimeType)}
	}
	if !UseImageCompression {
		return data, nil
	}
	compressed, err := imgutil.CompressToJPEG(data, ImageCompressionQuality, MaxReferenceEdge)
	if err != nil {
		slog.Warn("参照画像の圧縮に失敗したため元データを使用します", "mime_type", mimeType, "error", err)
		return data, nil
	}
	return compressed, nil
}

func toPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

func detectMIME(declared string, data []byte) string {
	if declared != "" {
		return declared
	}
	return http.DetectContentType(data)
}

// parseImagesResponse は Imagen の応答をインデックス順の画像と失敗記録に変換します。
// 要求枚数に満たない分は、フィルター等で返らなかった枠として失敗に記録します。
func parseImagesResponse(resp *genai.GenerateImagesResponse, requested int) ([]domain.ImageResponse, []domain.ImageError, error) {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil, nil, fmt.Errorf("invalid response: no image data")
	}

	var images []domain.ImageResponse
	var failures []domain.ImageError
	for i, gi := range resp.GeneratedImages {
		if gi == nil || gi.Image == nil || len(gi.Image.ImageBytes) == 0 {
			reason := "no image data"
			if gi != nil && gi.RAIFilteredReason != "" {
				reason = "filtered: " + gi.RAIFilteredReason
			}
			failures = append(failures, domain.ImageError{Index: i, Err: errors.New(reason)})
			continue
		}
		images = append(images, domain.ImageResponse{
			Index:    i,
			Data:     gi.Image.ImageBytes,
			MimeType: detectMIME(gi.Image.MIMEType, gi.Image.ImageBytes),
		})
	}
	for i := len(resp.GeneratedImages); i < requested; i++ {
		failures = append(failures, domain.ImageError{Index: i, Err: fmt.Errorf("image was filtered or not returned by the provider")})
	}
	return images, failures, nil
}

// parseContentResponse は Gemini の応答からすべての画像パーツを順に取り出します。
func parseContentResponse(resp *genai.GenerateContentResponse, requested int) ([]domain.ImageResponse, []domain.ImageError, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, nil, fmt.Errorf("invalid response: no candidates")
	}

	var images []domain.ImageResponse
	var text strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch {
			case part.InlineData != nil && len(part.InlineData.Data) > 0:
				images = append(images, domain.ImageResponse{
					Index:    len(images),
					Data:     part.InlineData.Data,
					MimeType: detectMIME(part.InlineData.MIMEType, part.InlineData.Data),
				})
			case part.Text != "":
				text.WriteString(part.Text)
			}
		}
	}

	if len(images) == 0 {
		first := resp.Candidates[0]
		if first != nil && first.FinishReason != "" && first.FinishReason != genai.FinishReasonUnspecified && first.FinishReason != genai.FinishReasonStop {
			return nil, nil, fmt.Errorf("画像生成が異常終了しました (FinishReason: %s)", first.FinishReason)
		}
		if s := strings.TrimSpace(text.String()); s != "" {
			return nil, nil, fmt.Errorf("no image data: model returned text only: %q", s)
		}
		return nil, nil, fmt.Errorf("no image data")
	}

	var failures []domain.ImageError
	for i := len(images); i < requested; i++ {
		failures = append(failures, domain.ImageError{Index: i, Err: fmt.Errorf("image was not returned by the provider")})
	}
	if len(images) > requested {
		images = images[:requested]
	}
	return images, failures, nil
}
