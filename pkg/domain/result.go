package domain

import (
	"fmt"
	"sort"
	"strings"
)

// State は1リクエストの生成状態です。Idle → InFlight → Completed / Failed の順にのみ遷移します。
type State string

const (
	StateIdle      State = "idle"
	StateInFlight  State = "in_flight"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Terminal は終端状態かどうかを返します。
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// ImageError は特定インデックスの画像生成失敗の記録です。
type ImageError struct {
	Index int
	Err   error
}

func (e ImageError) Error() string {
	return fmt.Sprintf("image %d: %v", e.Index+1, e.Err)
}

// GenerationResult は1回の生成操作の結果です。リクエストごとに新しく作られます。
type GenerationResult struct {
	RequestID    string
	Prompt       Prompt
	ProviderUsed Provider
	Requested    int
	Images       []ImageResponse // Index の昇順
	Errors       []ImageError    // Index の昇順
	State        State
}

// Slot は表示用の1枠です。Image と Err のどちらか一方のみが設定されます。
type Slot struct {
	Index int
	Image *ImageResponse
	Err   error
}

// Sort は Images と Errors をインデックス順に並べ直します。
func (r *GenerationResult) Sort() {
	sort.SliceStable(r.Images, func(i, j int) bool { return r.Images[i].Index < r.Images[j].Index })
	sort.SliceStable(r.Errors, func(i, j int) bool { return r.Errors[i].Index < r.Errors[j].Index })
}

// Slots は要求枚数分の枠を返します。失敗した枠は省略せずエラーとして返します。
func (r *GenerationResult) Slots() []Slot {
	n := r.Requested
	for _, img := range r.Images {
		n = max(n, img.Index+1)
	}
	for _, e := range r.Errors {
		n = max(n, e.Index+1)
	}

	slots := make([]Slot, n)
	for i := range slots {
		slots[i].Index = i
	}
	for i := range r.Images {
		img := &r.Images[i]
		slots[img.Index].Image = img
	}
	for _, e := range r.Errors {
		if slots[e.Index].Image == nil {
			slots[e.Index].Err = e.Err
		}
	}
	for i := range slots {
		if slots[i].Image == nil && slots[i].Err == nil {
			slots[i].Err = fmt.Errorf("no image was returned for this slot")
		}
	}
	return slots
}

// Caption は i 番目の画像のキャプションです。どのプロバイダーが生成したかを明示します。
func (r *GenerationResult) Caption(i int) string {
	return fmt.Sprintf("Image %d of %d (%s)", i+1, max(r.Requested, 1), r.ProviderUsed.DisplayName())
}

// FileName は i 番目の画像のダウンロード用ファイル名です。
func (r *GenerationResult) FileName(i int) string {
	id := r.RequestID
	if len(id) > 8 {
		id = id[:8]
	}
	name := fmt.Sprintf("%s_%d.png", r.ProviderUsed, i+1)
	if id != "" {
		name = fmt.Sprintf("%s_%s", strings.ToLower(id), name)
	}
	return name
}
