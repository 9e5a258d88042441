package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/shouni/gemini-image-studio/pkg/canvas"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/generator"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"
)

// EventKind はセッションの変更の種類です。
type EventKind string

const (
	EventImage     EventKind = "image"
	EventPrompt    EventKind = "prompt"
	EventSettings  EventKind = "settings"
	EventReference EventKind = "reference"
	EventCanvas    EventKind = "canvas"
	EventBusy      EventKind = "busy"
	EventReset     EventKind = "reset"
)

// Event は購読者に渡される変更通知です。
type Event struct {
	SessionID string
	Kind      EventKind
}

// seedSpace はランダムシードの範囲 [0, 2^31) です。送信時に int32 に収まる値だけを引きます。
const seedSpace = domain.MaxSeed + 1

// Session は1つの対話的な画像編集セッションです。
// 現在の画像は編集が成功するたびに丸ごと置き換えられ、履歴は持ちません。
type Session struct {
	id  string
	gen generator.ImageGenerator

	mu          sync.Mutex
	image       *domain.ImageHandle
	prompt      string
	negative    string
	seed        *int64
	reference   *domain.ImageHandle
	canvas      *canvas.MaskCanvas
	description string
	suggestions []string

	guard *Guard

	subMu       sync.Mutex
	subscribers []func(Event)

	randSeed func() int64
}

// New は空のセッションを作成します。
func New(id string, gen generator.ImageGenerator) *Session {
	return &Session{
		id:       id,
		gen:      gen,
		canvas:   canvas.NewMaskCanvas(),
		guard:    NewGuard(),
		randSeed: func() int64 { return rand.Int64N(seedSpace) },
	}
}

// ID はセッションの識別子を返します。
func (s *Session) ID() string { return s.id }

// Subscribe は変更通知を受け取る関数を登録します。
func (s *Session) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Session) emit(kind EventKind) {
	s.subMu.Lock()
	subs := slices.Clone(s.subscribers)
	s.subMu.Unlock()

	ev := Event{SessionID: s.id, Kind: kind}
	for _, fn := range subs {
		fn(ev)
	}
}

// Snapshot はセッションの現在の状態です。画像データそのものは含みません。
type Snapshot struct {
	ID             string      `json:"id"`
	HasImage       bool        `json:"has_image"`
	Width          int         `json:"width,omitempty"`
	Height         int         `json:"height,omitempty"`
	MimeType       string      `json:"mime_type,omitempty"`
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt"`
	Seed           *int64      `json:"seed"`
	HasReference   bool        `json:"has_reference"`
	LocalEditMode  bool        `json:"local_edit_mode"`
	BrushSize      float64     `json:"brush_size"`
	Drawing        bool        `json:"drawing"`
	Description    string      `json:"description,omitempty"`
	Suggestions    []string    `json:"suggestions,omitempty"`
	Busy           map[Op]bool `json:"busy"`
}

// Snapshot は現在の状態のコピーを返します。
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		HasImage:       !s.image.IsZero(),
		Prompt:         s.prompt,
		NegativePrompt: s.negative,
		HasReference:   !s.reference.IsZero(),
		LocalEditMode:  s.canvas.LocalEditMode(),
		BrushSize:      s.canvas.BrushSize(),
		Drawing:        s.canvas.State() == canvas.Drawing,
		Description:    s.description,
		Suggestions:    append([]string(nil), s.suggestions...),
		Busy:           s.guard.Snapshot(),
	}
	if s.seed != nil {
		v := *s.seed
		snap.Seed = &v
	}
	if !s.image.IsZero() {
		snap.Width, snap.Height = s.image.Width, s.image.Height
		snap.MimeType = s.image.MimeType
	}
	return snap
}

// Image は現在の画像を返します。画像がない場合は false です。
func (s *Session) Image() (domain.ImageHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.image.IsZero() {
		return domain.ImageHandle{}, false
	}
	return *s.image, true
}

// LoadImage は編集対象の画像を設定し、キャンバスをその画像のネイティブサイズで作り直します。
func (s *Session) LoadImage(h domain.ImageHandle) error {
	if s.guard.Busy(OpEdit) {
		return domain.ErrBusy
	}
	if h.IsZero() {
		return domain.Validationf("请先上传要编辑的图片。")
	}
	if h.Width <= 0 || h.Height <= 0 {
		h.Width, h.Height = imgutil.Dimensions(h.Data)
	}

	s.mu.Lock()
	if err := s.canvas.Reset(h.Width, h.Height); err != nil {
		s.mu.Unlock()
		return domain.Validationf("无法读取图片: %v", err)
	}
	s.image = &h
	s.description = ""
	s.suggestions = nil
	s.mu.Unlock()

	s.emit(EventImage)
	return nil
}

// ChangeImage は現在の画像を外し、ローカル編集モードを終了します。編集の実行中は受け付けません。
func (s *Session) ChangeImage() error {
	if s.guard.Busy(OpEdit) {
		return domain.ErrBusy
	}
	s.mu.Lock()
	s.image = nil
	s.canvas.SetLocalEditMode(false)
	s.canvas.Release()
	s.mu.Unlock()

	s.emit(EventImage)
	return nil
}

// StartNew は画像・プロンプト・参照画像・シードをすべて消去します。
func (s *Session) StartNew() {
	s.mu.Lock()
	s.image = nil
	s.prompt = ""
	s.negative = ""
	s.seed = nil
	s.reference = nil
	s.description = ""
	s.suggestions = nil
	s.canvas.SetLocalEditMode(false)
	s.canvas.Release()
	s.mu.Unlock()

	s.emit(EventReset)
}

// SetPrompt は編集指示を設定します。
func (s *Session) SetPrompt(prompt string) {
	s.mu.Lock()
	s.prompt = prompt
	s.mu.Unlock()
	s.emit(EventPrompt)
}

// SetNegativePrompt はネガティブプロンプトを設定します。
func (s *Session) SetNegativePrompt(neg string) {
	s.mu.Lock()
	s.negative = neg
	s.mu.Unlock()
	s.emit(EventPrompt)
}

// SetSeed はシードを設定します。nil でランダム扱いに戻し、[0, MaxSeed] の範囲外は拒否します。
func (s *Session) SetSeed(seed *int64) error {
	if err := domain.ValidateSeed(seed); err != nil {
		return err
	}
	s.mu.Lock()
	if seed == nil {
		s.seed = nil
	} else {
		v := *seed
		s.seed = &v
	}
	s.mu.Unlock()
	s.emit(EventSettings)
	return nil
}

// RandomizeSeed は [0, MaxSeed] からシードを引いて設定します。
func (s *Session) RandomizeSeed() int64 {
	v := s.randSeed()
	_ = s.SetSeed(&v)
	return v
}

// SetReference は被写体を抽出する参照画像を設定します。
func (s *Session) SetReference(h domain.ImageHandle) {
	s.mu.Lock()
	s.reference = &h
	s.mu.Unlock()
	s.emit(EventReference)
}

// ClearReference は参照画像を外します。
func (s *Session) ClearReference() {
	s.mu.Lock()
	s.reference = nil
	s.mu.Unlock()
	s.emit(EventReference)
}

// SetLocalEditMode はローカル編集（マスク描画）モードを切り替えます。画像がない場合は有効にできません。
func (s *Session) SetLocalEditMode(on bool) error {
	s.mu.Lock()
	if on && s.image.IsZero() {
		s.mu.Unlock()
		return domain.Validationf("请先上传要编辑的图片。")
	}
	s.canvas.SetLocalEditMode(on)
	s.mu.Unlock()

	s.emit(EventCanvas)
	return nil
}

// SetBrushSize はブラシの太さ（ビットマップ上のピクセル）を設定します。
func (s *Session) SetBrushSize(size float64) {
	s.mu.Lock()
	s.canvas.SetBrushSize(size)
	s.mu.Unlock()
	s.emit(EventCanvas)
}

// StartPointer はポインタの押下でストロークを開始します。
func (s *Session) StartPointer(ev canvas.PointerEvent, box canvas.Box) bool {
	s.mu.Lock()
	started := s.canvas.StartPointer(ev, box)
	s.mu.Unlock()
	if started {
		s.emit(EventCanvas)
	}
	return started
}

// MovePointer はポインタの移動で線分を描きます。
func (s *Session) MovePointer(ev canvas.PointerEvent, box canvas.Box) error {
	s.mu.Lock()
	err := s.canvas.MovePointer(ev, box)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emit(EventCanvas)
	return nil
}

// StopPointer はストロークを終了します。
func (s *Session) StopPointer() {
	s.mu.Lock()
	s.canvas.StopDrawing()
	s.mu.Unlock()
	s.emit(EventCanvas)
}

// ClearMask は描かれたマスクを消去します。
func (s *Session) ClearMask() {
	s.mu.Lock()
	s.canvas.Clear()
	s.mu.Unlock()
	s.emit(EventCanvas)
}

// Mask は現在のマスクを二値化して返します。何も描かれていなければ nil です。
func (s *Session) Mask() (*canvas.Mask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return canvas.EncodeMask(s.canvas.Raster())
}

// Edit は現在の画像・指示・マスクで編集を実行します。
// 成功した場合は画像を置き換え、指示を空にし、キャンバスを新しいサイズで作り直します。
// 失敗した場合は状態を変更しません（使用済みのマスクを除く）。
// 実行中に StartNew などで画像が差し替えられた場合は、結果を反映せず ErrBusy を返します。
func (s *Session) Edit(ctx context.Context) (*domain.ImageResponse, error) {
	if !s.guard.TryAcquire(OpEdit) {
		return nil, domain.ErrBusy
	}
	defer func() {
		s.guard.Release(OpEdit)
		s.emit(EventBusy)
	}()
	s.emit(EventBusy)

	req, base, err := s.editRequest()
	if err != nil {
		return nil, err
	}

	resp, err := s.gen.EditImage(ctx, req)
	if err != nil {
		return nil, err
	}

	next := resp.Handle()
	next.Width, next.Height = imgutil.Dimensions(next.Data)

	s.mu.Lock()
	if s.image != base {
		s.mu.Unlock()
		slog.WarnContext(ctx, "編集中に画像が差し替えられたため結果を破棄しました", "session", s.id)
		return nil, fmt.Errorf("%w: 编辑期间图片已被更换", domain.ErrBusy)
	}
	s.image = &next
	s.prompt = ""
	s.description = resp.Description
	s.suggestions = resp.Suggestions
	if next.Width > 0 && next.Height > 0 {
		if err := s.canvas.Reset(next.Width, next.Height); err != nil {
			slog.WarnContext(ctx, "キャンバスの再生成に失敗しました", "error", err)
		}
	} else {
		slog.WarnContext(ctx, "生成画像のサイズを取得できませんでした", "mime_type", next.MimeType)
		s.canvas.Release()
	}
	s.mu.Unlock()

	s.emit(EventImage)
	return resp, nil
}

// editRequest はロック下で編集リクエストを組み立て、使用したマスクを消去します。
// 戻り値の base は反映時に画像が差し替えられていないかの確認に使います。
func (s *Session) editRequest() (domain.ImageEditRequest, *domain.ImageHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image.IsZero() {
		return domain.ImageEditRequest{}, nil, domain.Validationf("请先上传要编辑的图片。")
	}
	if strings.TrimSpace(s.prompt) == "" {
		return domain.ImageEditRequest{}, nil, domain.Validationf("请输入您的修改指令。")
	}

	req := domain.ImageEditRequest{
		Base:           *s.image,
		Prompt:         s.prompt,
		NegativePrompt: s.negative,
		Reference:      s.reference,
		Seed:           s.seed,
	}

	if s.canvas.LocalEditMode() {
		mask, err := canvas.EncodeMask(s.canvas.Raster())
		if err != nil {
			return domain.ImageEditRequest{}, nil, fmt.Errorf("mask: %w", err)
		}
		if mask != nil {
			req.Mask = mask.Data
			s.canvas.Clear()
		}
	}
	return req, s.image, nil
}

// Optimize は現在の指示を詳細なプロンプトに展開して置き換えます。編集の実行中は受け付けません。
func (s *Session) Optimize(ctx context.Context) (string, error) {
	if s.guard.Busy(OpEdit) {
		return "", domain.ErrBusy
	}
	if !s.guard.TryAcquire(OpOptimize) {
		return "", domain.ErrBusy
	}
	defer func() {
		s.guard.Release(OpOptimize)
		s.emit(EventBusy)
	}()
	s.emit(EventBusy)

	s.mu.Lock()
	prompt := s.prompt
	s.mu.Unlock()

	out, err := s.gen.OptimizePrompt(ctx, prompt)
	if err != nil {
		return "", err
	}

	s.SetPrompt(out)
	return out, nil
}
