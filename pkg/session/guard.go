package session

import (
	"sync"
	"sync/atomic"
)

// Op は排他制御の単位となる操作の種類です。
type Op string

const (
	OpEdit     Op = "edit"
	OpGenerate Op = "generate"
	OpRemix    Op = "remix"
	OpOptimize Op = "optimize"
)

// Guard は操作の種類ごとに「処理中」フラグを持ち、同種の二重実行を拒否します。
// 待ち行列もキャンセルもなく、処理中の呼び出しはそのまま ErrBusy になります。
type Guard struct {
	mu    sync.Mutex
	flags map[Op]*atomic.Bool
}

// NewGuard は Guard を初期化します。
func NewGuard() *Guard {
	return &Guard{flags: make(map[Op]*atomic.Bool)}
}

func (g *Guard) flag(op Op) *atomic.Bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, ok := g.flags[op]
	if !ok {
		f = &atomic.Bool{}
		g.flags[op] = f
	}
	return f
}

// TryAcquire は op が処理中でなければ処理中にして true を返します。
func (g *Guard) TryAcquire(op Op) bool {
	return g.flag(op).CompareAndSwap(false, true)
}

// Release は op の処理中フラグを下ろします。
func (g *Guard) Release(op Op) {
	g.flag(op).Store(false)
}

// Busy は op が処理中かどうかを返します。
func (g *Guard) Busy(op Op) bool {
	return g.flag(op).Load()
}

// Snapshot は処理中の操作の一覧を返します。
func (g *Guard) Snapshot() map[Op]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Op]bool, len(g.flags))
	for op, f := range g.flags {
		if f.Load() {
			out[op] = true
		}
	}
	return out
}
