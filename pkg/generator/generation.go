package generator

import (
	"context"
	"sync"

	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// Generation は実行中の1リクエストへのハンドルです。
// Cancel でユーザー操作による停止を伝え、それまでに取得できた画像は結果に残ります。
type Generation struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	state  domain.State
	result *domain.GenerationResult
	err    error
}

func newGeneration(cancel context.CancelFunc) *Generation {
	return &Generation{
		cancel: cancel,
		done:   make(chan struct{}),
		state:  domain.StateIdle,
	}
}

// State は現在の状態を返します。
func (g *Generation) State() domain.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Cancel は実行中の呼び出しを中断します。終端状態では何もしません。
func (g *Generation) Cancel() {
	g.cancel()
}

// Done は生成が終端状態になると閉じられます。
func (g *Generation) Done() <-chan struct{} {
	return g.done
}

// Wait は生成の完了を待って結果を返します。
func (g *Generation) Wait() (*domain.GenerationResult, error) {
	<-g.done
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result, g.err
}

func (g *Generation) setState(s domain.State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state.Terminal() {
		return
	}
	g.state = s
}

func (g *Generation) finish(res *domain.GenerationResult, err error) {
	g.mu.Lock()
	g.result = res
	g.err = err
	if !g.state.Terminal() {
		g.state = domain.StateFailed
		if err == nil && res != nil {
			g.state = res.State
		}
	}
	g.mu.Unlock()
	close(g.done)
}
