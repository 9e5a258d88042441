package notify

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind は通知の種類です。
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

const (
	SuccessDuration = 5 * time.Second
	ErrorDuration   = 8 * time.Second
)

// Toast は表示中の通知1件です。
type Toast struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Toaster は自動で消える通知を管理します。変更のたびに購読者へ現在の一覧を渡します。
type Toaster struct {
	mu          sync.Mutex
	toasts      map[string]*entry
	subscribers []func([]Toast)
	now         func() time.Time
}

type entry struct {
	toast Toast
	timer *time.Timer
}

// NewToaster は Toaster を初期化します。
func NewToaster() *Toaster {
	return &Toaster{
		toasts: make(map[string]*entry),
		now:    time.Now,
	}
}

// Show は通知を追加し、d 経過後に自動で削除します。d <= 0 の場合は手動で消すまで残ります。
func (t *Toaster) Show(kind Kind, message string, d time.Duration) string {
	id := uuid.NewString()

	t.mu.Lock()
	e := &entry{toast: Toast{ID: id, Kind: kind, Message: message, CreatedAt: t.now()}}
	if d > 0 {
		e.timer = time.AfterFunc(d, func() { t.Remove(id) })
	}
	t.toasts[id] = e
	snapshot, subs := t.snapshotLocked()
	t.mu.Unlock()

	notify(subs, snapshot)
	return id
}

// Success は成功通知を5秒間表示します。
func (t *Toaster) Success(message string) string {
	return t.Show(KindSuccess, message, SuccessDuration)
}

// Error はエラー通知を8秒間表示します。
func (t *Toaster) Error(message string) string {
	return t.Show(KindError, message, ErrorDuration)
}

// Remove は通知を削除します。存在しない ID の場合は false を返します。
func (t *Toaster) Remove(id string) bool {
	t.mu.Lock()
	e, ok := t.toasts[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(t.toasts, id)
	snapshot, subs := t.snapshotLocked()
	t.mu.Unlock()

	notify(subs, snapshot)
	return true
}

// List は表示中の通知を古い順に返します。
func (t *Toaster) List() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	snapshot, _ := t.snapshotLocked()
	return snapshot
}

// Subscribe は変更通知を受け取る関数を登録します。
func (t *Toaster) Subscribe(fn func([]Toast)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

func (t *Toaster) snapshotLocked() ([]Toast, []func([]Toast)) {
	out := make([]Toast, 0, len(t.toasts))
	for _, e := range t.toasts {
		out = append(out, e.toast)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	subs := slices.Clone(t.subscribers)
	return out, subs
}

func notify(subs []func([]Toast), snapshot []Toast) {
	for _, fn := range subs {
		fn(snapshot)
	}
}
