package server

import (
	"encoding/base64"
	"fmt"

	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/gallery"
)

// generateRequest は POST /api/generate のリクエストボディです。
type generateRequest struct {
	Prompt         string `json:"prompt"`
	Style          string `json:"style"`
	NegativePrompt string `json:"negative_prompt"`
	AspectRatio    string `json:"aspect_ratio"`
	ImageCount     *int   `json:"image_count"`
	Provider       string `json:"provider"`
	SafetyLevel    string `json:"safety_level"`
	Seed           *int64 `json:"seed"`
	ReferenceImage string `json:"reference_image"` // base64
	ReferenceURL   string `json:"reference_url"`
}

func (r generateRequest) toDomain() (domain.GenerationRequest, error) {
	provider, err := domain.ParseProvider(r.Provider)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	ar, err := domain.ParseAspectRatio(r.AspectRatio)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	level, err := domain.ParseSafetyLevel(r.SafetyLevel)
	if err != nil {
		return domain.GenerationRequest{}, err
	}

	count := 1
	if r.ImageCount != nil {
		if *r.ImageCount < 1 {
			return domain.GenerationRequest{}, &domain.ValidationError{Field: "image_count", Reason: fmt.Sprintf("must be at least 1, got %d", *r.ImageCount)}
		}
		count = *r.ImageCount
	}

	var ref []byte
	if r.ReferenceImage != "" {
		ref, err = base64.StdEncoding.DecodeString(r.ReferenceImage)
		if err != nil {
			return domain.GenerationRequest{}, &domain.ValidationError{Field: "reference_image", Reason: fmt.Sprintf("invalid base64: %v", err)}
		}
	}

	return domain.GenerationRequest{
		RawPrompt:      r.Prompt,
		Style:          domain.StyleKey(r.Style),
		NegativePrompt: r.NegativePrompt,
		AspectRatio:    ar,
		ImageCount:     count,
		Provider:       provider,
		SafetyLevel:    level,
		Seed:           r.Seed,
		ReferenceImage: ref,
		ReferenceURL:   r.ReferenceURL,
	}, nil
}

type slotDTO struct {
	Index     int    `json:"index"`
	Caption   string `json:"caption"`
	FileName  string `json:"file_name,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	Seed      int64  `json:"seed"`
	Data      string `json:"data,omitempty"` // base64
	GalleryID string `json:"gallery_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type resultDTO struct {
	RequestID string    `json:"request_id"`
	Provider  string    `json:"provider"`
	Prompt    string    `json:"prompt"`
	State     string    `json:"state"`
	Slots     []slotDTO `json:"slots"`
}

func newResultDTO(res *domain.GenerationResult, saved []gallery.Entry) resultDTO {
	ids := make(map[int]string, len(saved))
	for _, e := range saved {
		ids[e.Image.Index] = e.ID
	}

	out := resultDTO{
		RequestID: res.RequestID,
		Provider:  string(res.ProviderUsed),
		Prompt:    res.Prompt.Text,
		State:     string(res.State),
	}
	for _, s := range res.Slots() {
		dto := slotDTO{Index: s.Index, Caption: res.Caption(s.Index)}
		if s.Image != nil {
			dto.FileName = res.FileName(s.Index)
			dto.MimeType = s.Image.MimeType
			dto.Seed = s.Image.UsedSeed
			dto.Data = base64.StdEncoding.EncodeToString(s.Image.Data)
			dto.GalleryID = ids[s.Index]
		} else {
			dto.Error = s.Err.Error()
		}
		out.Slots = append(out.Slots, dto)
	}
	return out
}

type galleryEntryDTO struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
	Prompt    string `json:"prompt"`
	Provider  string `json:"provider"`
	Caption   string `json:"caption"`
	FileName  string `json:"file_name"`
	CreatedAt string `json:"created_at"`
}

type errorDTO struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	Request string `json:"request_id,omitempty"`
}
