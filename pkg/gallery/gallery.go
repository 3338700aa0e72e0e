package gallery

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// ErrNotFound は指定IDの画像がギャラリーに無い場合に返されます。
var ErrNotFound = errors.New("gallery: image not found")

// Entry はギャラリーに保存された1枚の画像です。
type Entry struct {
	ID        string
	RequestID string
	Prompt    string
	Provider  domain.Provider
	Caption   string
	FileName  string
	Image     domain.ImageResponse
	CreatedAt time.Time
}

// Gallery はUIシェルが所有する、セッション単位のメモリ上の画像一覧です。永続化はしません。
type Gallery struct {
	mu      sync.RWMutex
	limit   int
	entries []Entry
	now     func() time.Time
}

// New は最大 limit 件を保持する Gallery を生成します。limit が 0 以下なら無制限です。
func New(limit int) *Gallery {
	return &Gallery{limit: limit, now: time.Now}
}

// Add は生成結果のうち成功した画像を追加し、追加したエントリを返します。
// 上限を超えた場合は古いものから削除します。
func (g *Gallery) Add(res *domain.GenerationResult) []Entry {
	if res == nil || len(res.Images) == 0 {
		return nil
	}

	added := make([]Entry, 0, len(res.Images))
	for _, img := range res.Images {
		added = append(added, Entry{
			ID:        uuid.NewString(),
			RequestID: res.RequestID,
			Prompt:    res.Prompt.Text,
			Provider:  res.ProviderUsed,
			Caption:   res.Caption(img.Index),
			FileName:  res.FileName(img.Index),
			Image:     img,
			CreatedAt: g.now(),
		})
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = append(g.entries, added...)
	if g.limit > 0 && len(g.entries) > g.limit {
		g.entries = slices.Clone(g.entries[len(g.entries)-g.limit:])
	}
	return added
}

// List は追加順のエントリのコピーを返します。
func (g *Gallery) List() []Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.entries)
}

// Get は ID でエントリを探します。
func (g *Gallery) Get(id string) (Entry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Len は保持しているエントリ数です。
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Clear はすべてのエントリを削除します。
func (g *Gallery) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = nil
}
