package canvas

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
)

const (
	DefaultBrushSize = 30
	MinBrushSize     = 1
	MaxBrushSize     = 200
)

// State は描画ステートマシンの状態です。
type State int

const (
	Idle State = iota
	Drawing
)

func (s State) String() string {
	if s == Drawing {
		return "drawing"
	}
	return "idle"
}

// ストロークの描画色（半透明の赤）。マスク化の際は alpha > 0 だけが意味を持つ。
const (
	strokeR = 239.0 / 255
	strokeG = 68.0 / 255
	strokeB = 68.0 / 255
	strokeA = 0.7
)

// MaskCanvas は現在の画像と同じ解像度の描画面を持ち、ブラシのストロークを蓄積します。
// 描画はローカル編集モードが有効な間のみ受け付けます。
type MaskCanvas struct {
	dc        *gg.Context
	width     int
	height    int
	localEdit bool
	brushSize float64
	state     State
	lastPos   *Point
}

// NewMaskCanvas は未生成状態のキャンバスを作成します。Reset で画像サイズが決まるまで描画できません。
func NewMaskCanvas() *MaskCanvas {
	return &MaskCanvas{brushSize: DefaultBrushSize}
}

// Reset は新しい対象画像のネイティブサイズでキャンバスを作り直します。
// 既存のストロークは破棄され、描画状態は Idle に戻ります。
func (c *MaskCanvas) Reset(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid canvas size: %dx%d", width, height)
	}
	c.release()
	c.dc = gg.NewContext(width, height)
	c.width = width
	c.height = height
	c.state = Idle
	c.lastPos = nil
	return nil
}

// Release は描画面を破棄し、未生成状態に戻します。
func (c *MaskCanvas) Release() {
	c.release()
	c.state = Idle
	c.lastPos = nil
}

func (c *MaskCanvas) release() {
	if c.dc != nil {
		_ = c.dc.Close()
	}
	c.dc = nil
	c.width, c.height = 0, 0
}

// Materialized は描画面が存在するかを返します。
func (c *MaskCanvas) Materialized() bool {
	return c.dc != nil
}

// Size はキャンバスのネイティブサイズを返します。
func (c *MaskCanvas) Size() (int, int) {
	return c.width, c.height
}

func (c *MaskCanvas) State() State { return c.state }

func (c *MaskCanvas) LocalEditMode() bool { return c.localEdit }

// SetLocalEditMode はローカル編集モードを切り替えます。無効化すると描画中のストロークも終了します。
func (c *MaskCanvas) SetLocalEditMode(on bool) {
	c.localEdit = on
	if !on {
		c.StopDrawing()
	}
}

func (c *MaskCanvas) BrushSize() float64 { return c.brushSize }

// SetBrushSize はブラシの線幅（ビットマップピクセル）を設定します。
func (c *MaskCanvas) SetBrushSize(size float64) {
	switch {
	case size < MinBrushSize:
		size = MinBrushSize
	case size > MaxBrushSize:
		size = MaxBrushSize
	}
	c.brushSize = size
}

// StartDrawing は描画を開始し、開始位置を記録します。
// ローカル編集モードでない場合やキャンバス未生成の場合は何もせず false を返します。
func (c *MaskCanvas) StartDrawing(p Point) bool {
	if !c.localEdit || c.dc == nil {
		return false
	}
	c.state = Drawing
	pos := p
	c.lastPos = &pos
	return true
}

// Draw は直前の位置から p までの線分を描き、直前の位置を更新します。
func (c *MaskCanvas) Draw(p Point) error {
	if c.state != Drawing || c.dc == nil || c.lastPos == nil {
		return nil
	}

	c.dc.SetRGBA(strokeR, strokeG, strokeB, strokeA)
	c.dc.SetLineWidth(c.brushSize)
	c.dc.SetLineCap(gg.LineCapRound)
	c.dc.SetLineJoin(gg.LineJoinRound)
	c.dc.MoveTo(c.lastPos.X, c.lastPos.Y)
	c.dc.LineTo(p.X, p.Y)
	if err := c.dc.Stroke(); err != nil {
		return fmt.Errorf("stroke failed: %w", err)
	}

	pos := p
	c.lastPos = &pos
	return nil
}

// StopDrawing は Idle に戻り、直前の位置を破棄します。
func (c *MaskCanvas) StopDrawing() {
	c.state = Idle
	c.lastPos = nil
}

// StartPointer は画面上のポインタイベントをビットマップ座標に変換して描画を開始します。
func (c *MaskCanvas) StartPointer(ev PointerEvent, box Box) bool {
	p, ok := MapToBitmap(ev, box, c.width, c.height)
	if !ok {
		return false
	}
	return c.StartDrawing(p)
}

// MovePointer は画面上のポインタイベントで線分を描きます。
func (c *MaskCanvas) MovePointer(ev PointerEvent, box Box) error {
	p, ok := MapToBitmap(ev, box, c.width, c.height)
	if !ok {
		return nil
	}
	return c.Draw(p)
}

// Clear は描かれたピクセルをすべて消去します。モードは変更しません。
func (c *MaskCanvas) Clear() {
	if c.dc == nil {
		return
	}
	c.dc.Clear()
}

// Raster は蓄積されたラスタを返します。未生成の場合は nil です。
func (c *MaskCanvas) Raster() image.Image {
	if c.dc == nil {
		return nil
	}
	return c.dc.Image()
}
