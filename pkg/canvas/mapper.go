package canvas

// PointerKind はポインタ入力の種別です。
type PointerKind int

const (
	PointerMouse PointerKind = iota
	PointerTouch
)

// Point はビットマップ座標（または画面座標）上の点です。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box はキャンバスが画面上に表示されている矩形（CSSピクセル）です。
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PointerEvent はマウスまたはタッチのイベントです。タッチは最初の1点のみを使用します。
type PointerEvent struct {
	Kind    PointerKind `json:"kind"`
	ClientX float64     `json:"client_x"`
	ClientY float64     `json:"client_y"`
	Touches []Point     `json:"touches,omitempty"`
}

// client はイベントから画面座標を取り出します。
func (e PointerEvent) client() (Point, bool) {
	if e.Kind == PointerTouch {
		if len(e.Touches) == 0 {
			return Point{}, false
		}
		return e.Touches[0], true
	}
	return Point{X: e.ClientX, Y: e.ClientY}, true
}

// MapToBitmap は画面上のポインタ位置をキャンバスのネイティブピクセル座標に変換します。
// キャンバスが未生成（ネイティブサイズ0）または表示矩形が潰れている場合は false を返します。
func MapToBitmap(ev PointerEvent, box Box, nativeW, nativeH int) (Point, bool) {
	if nativeW <= 0 || nativeH <= 0 || box.Width <= 0 || box.Height <= 0 {
		return Point{}, false
	}
	c, ok := ev.client()
	if !ok {
		return Point{}, false
	}

	scaleX := float64(nativeW) / box.Width
	scaleY := float64(nativeH) / box.Height

	return Point{
		X: (c.X - box.Left) * scaleX,
		Y: (c.Y - box.Top) * scaleY,
	}, true
}
