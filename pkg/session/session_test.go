package session

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"sync"
	"testing"

	"github.com/shouni/gemini-image-studio/pkg/canvas"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(gen *mockGenerator) *Session {
	return New("test", gen)
}

func paintStroke(t *testing.T, s *Session) {
	t.Helper()
	box := canvas.Box{Width: 100, Height: 100}
	require.True(t, s.StartPointer(canvas.PointerEvent{Kind: canvas.PointerMouse, ClientX: 10, ClientY: 10}, box))
	require.NoError(t, s.MovePointer(canvas.PointerEvent{Kind: canvas.PointerMouse, ClientX: 90, ClientY: 90}, box))
	s.StopPointer()
}

func TestSession_LoadImage(t *testing.T) {
	s := newTestSession(&mockGenerator{})

	t.Run("キャンバスが画像のネイティブサイズになる", func(t *testing.T) {
		require.NoError(t, s.LoadImage(handle(64, 48)))
		w, h := s.canvas.Size()
		assert.Equal(t, 64, w)
		assert.Equal(t, 48, h)
		assert.True(t, s.Snapshot().HasImage)
	})

	t.Run("サイズ未設定でもデータから補完する", func(t *testing.T) {
		hd := handle(12, 34)
		hd.Width, hd.Height = 0, 0
		require.NoError(t, s.LoadImage(hd))
		snap := s.Snapshot()
		assert.Equal(t, 12, snap.Width)
		assert.Equal(t, 34, snap.Height)
	})

	t.Run("空の画像は拒否", func(t *testing.T) {
		assert.ErrorIs(t, s.LoadImage(domain.ImageHandle{}), domain.ErrValidation)
	})
}

func TestSession_LocalEditMode(t *testing.T) {
	s := newTestSession(&mockGenerator{})

	t.Run("画像がなければ有効にできない", func(t *testing.T) {
		assert.ErrorIs(t, s.SetLocalEditMode(true), domain.ErrValidation)
	})

	t.Run("画像の変更でモードを抜ける", func(t *testing.T) {
		require.NoError(t, s.LoadImage(handle(100, 100)))
		require.NoError(t, s.SetLocalEditMode(true))
		assert.True(t, s.Snapshot().LocalEditMode)

		require.NoError(t, s.ChangeImage())
		snap := s.Snapshot()
		assert.False(t, snap.LocalEditMode)
		assert.False(t, snap.HasImage)
	})
}

func TestSession_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("画像がない場合は通信しない", func(t *testing.T) {
		gen := &mockGenerator{}
		s := newTestSession(gen)
		s.SetPrompt("变红")

		_, err := s.Edit(ctx)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, gen.edits())
	})

	t.Run("指示が空の場合は通信しない", func(t *testing.T) {
		gen := &mockGenerator{}
		s := newTestSession(gen)
		require.NoError(t, s.LoadImage(handle(10, 10)))

		_, err := s.Edit(ctx)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, gen.edits())
	})

	t.Run("マスク付きの編集が成功すると画像とキャンバスが置き換わる", func(t *testing.T) {
		gen := &mockGenerator{}
		s := newTestSession(gen)
		seed := int64(5)
		require.NoError(t, s.LoadImage(handle(100, 100)))
		require.NoError(t, s.SetLocalEditMode(true))
		s.SetPrompt("把天空变成紫色")
		s.SetNegativePrompt("云")
		s.SetSeed(&seed)
		paintStroke(t, s)

		resp, err := s.Edit(ctx)
		require.NoError(t, err)
		assert.Equal(t, "新图片", resp.Description)

		reqs := gen.edits()
		require.Len(t, reqs, 1)
		assert.Equal(t, "把天空变成紫色", reqs[0].Prompt)
		assert.Equal(t, "云", reqs[0].NegativePrompt)
		assert.Equal(t, int64(5), *reqs[0].Seed)
		require.NotEmpty(t, reqs[0].Mask)

		maskImg, err := png.Decode(bytes.NewReader(reqs[0].Mask))
		require.NoError(t, err)
		assert.Equal(t, 100, maskImg.Bounds().Dx())
		assert.Equal(t, 100, maskImg.Bounds().Dy())

		snap := s.Snapshot()
		assert.Empty(t, snap.Prompt, "成功後は指示を空にする")
		assert.Equal(t, "云", snap.NegativePrompt)
		assert.Equal(t, 30, snap.Width)
		assert.Equal(t, 20, snap.Height)
		assert.Equal(t, "新图片", snap.Description)
		assert.Equal(t, []string{"加星星"}, snap.Suggestions)

		w, h := s.canvas.Size()
		assert.Equal(t, 30, w)
		assert.Equal(t, 20, h)
		mask, err := s.Mask()
		require.NoError(t, err)
		assert.Nil(t, mask, "新しいキャンバスには何も描かれていない")
	})

	t.Run("何も描いていなければマスクは送らない", func(t *testing.T) {
		gen := &mockGenerator{}
		s := newTestSession(gen)
		require.NoError(t, s.LoadImage(handle(50, 50)))
		require.NoError(t, s.SetLocalEditMode(true))
		s.SetPrompt("变红")

		_, err := s.Edit(ctx)
		require.NoError(t, err)
		assert.Nil(t, gen.edits()[0].Mask)
	})

	t.Run("ローカル編集モードでなければ描画済みでもマスクは送らない", func(t *testing.T) {
		gen := &mockGenerator{}
		s := newTestSession(gen)
		require.NoError(t, s.LoadImage(handle(100, 100)))
		require.NoError(t, s.SetLocalEditMode(true))
		paintStroke(t, s)
		require.NoError(t, s.SetLocalEditMode(false))
		s.SetPrompt("变红")

		_, err := s.Edit(ctx)
		require.NoError(t, err)
		assert.Nil(t, gen.edits()[0].Mask)
	})

	t.Run("失敗した場合は画像も指示も変わらない", func(t *testing.T) {
		gen := &mockGenerator{
			editFunc: func(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
				return nil, domain.ErrTextInsteadOfImage
			},
		}
		s := newTestSession(gen)
		original := handle(40, 40)
		require.NoError(t, s.LoadImage(original))
		s.SetPrompt("变红")

		_, err := s.Edit(ctx)
		assert.ErrorIs(t, err, domain.ErrUpstream)

		img, ok := s.Image()
		require.True(t, ok)
		assert.Equal(t, original.Data, img.Data)
		assert.Equal(t, "变红", s.Snapshot().Prompt)
	})

	t.Run("処理中の二重実行は ErrBusy", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		gen := &mockGenerator{
			editFunc: func(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
				close(entered)
				<-release
				return &domain.ImageResponse{Data: pngBytes(4, 4), MimeType: "image/png"}, nil
			},
		}
		s := newTestSession(gen)
		require.NoError(t, s.LoadImage(handle(10, 10)))
		s.SetPrompt("变红")

		var wg sync.WaitGroup
		wg.Add(1)
		var firstErr error
		go func() {
			defer wg.Done()
			_, firstErr = s.Edit(ctx)
		}()
		<-entered

		_, err := s.Edit(ctx)
		assert.ErrorIs(t, err, domain.ErrBusy)
		assert.True(t, s.Snapshot().Busy[OpEdit])

		_, err = s.Optimize(ctx)
		assert.ErrorIs(t, err, domain.ErrBusy, "編集中は最適化も拒否")

		close(release)
		wg.Wait()
		require.NoError(t, firstErr)
		assert.Len(t, gen.edits(), 1)
		assert.False(t, s.Snapshot().Busy[OpEdit])
	})

	t.Run("編集中は画像の読み込みと変更を拒否するのだ", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		gen := &mockGenerator{
			editFunc: func(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
				close(entered)
				<-release
				return &domain.ImageResponse{Data: pngBytes(4, 4), MimeType: "image/png"}, nil
			},
		}
		s := newTestSession(gen)
		require.NoError(t, s.LoadImage(handle(10, 10)))
		s.SetPrompt("变红")

		done := make(chan error, 1)
		go func() {
			_, err := s.Edit(ctx)
			done <- err
		}()
		<-entered

		assert.ErrorIs(t, s.LoadImage(handle(50, 50)), domain.ErrBusy)
		assert.ErrorIs(t, s.ChangeImage(), domain.ErrBusy)

		close(release)
		require.NoError(t, <-done)
		img, ok := s.Image()
		require.True(t, ok)
		assert.Equal(t, 4, img.Width)
	})

	t.Run("編集中に新規開始された場合は結果を反映しないのだ", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		gen := &mockGenerator{
			editFunc: func(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
				close(entered)
				<-release
				return &domain.ImageResponse{Data: pngBytes(4, 4), MimeType: "image/png"}, nil
			},
		}
		s := newTestSession(gen)
		require.NoError(t, s.LoadImage(handle(10, 10)))
		s.SetPrompt("变红")

		done := make(chan error, 1)
		go func() {
			_, err := s.Edit(ctx)
			done <- err
		}()
		<-entered

		s.StartNew()
		close(release)

		assert.ErrorIs(t, <-done, domain.ErrBusy)
		_, ok := s.Image()
		assert.False(t, ok)
		assert.Empty(t, s.Snapshot().Description)
	})
}

func TestSession_Optimize(t *testing.T) {
	ctx := context.Background()

	t.Run("指示が最適化結果に置き換わる", func(t *testing.T) {
		s := newTestSession(&mockGenerator{})
		s.SetPrompt("猫")

		out, err := s.Optimize(ctx)
		require.NoError(t, err)
		assert.Equal(t, "详细的猫", out)
		assert.Equal(t, "详细的猫", s.Snapshot().Prompt)
	})

	t.Run("失敗した場合は指示を保持する", func(t *testing.T) {
		s := newTestSession(&mockGenerator{
			optimizeFunc: func(ctx context.Context, prompt string) (string, error) {
				return "", errors.New("boom")
			},
		})
		s.SetPrompt("猫")

		_, err := s.Optimize(ctx)
		assert.Error(t, err)
		assert.Equal(t, "猫", s.Snapshot().Prompt)
	})
}

func TestSession_StartNew(t *testing.T) {
	s := newTestSession(&mockGenerator{})
	seed := int64(1)
	require.NoError(t, s.LoadImage(handle(10, 10)))
	require.NoError(t, s.SetLocalEditMode(true))
	s.SetPrompt("p")
	s.SetNegativePrompt("n")
	s.SetSeed(&seed)
	s.SetReference(handle(5, 5))

	s.StartNew()

	snap := s.Snapshot()
	assert.False(t, snap.HasImage)
	assert.Empty(t, snap.Prompt)
	assert.Empty(t, snap.NegativePrompt)
	assert.Nil(t, snap.Seed)
	assert.False(t, snap.HasReference)
	assert.False(t, snap.LocalEditMode)
}

func TestSession_RandomizeSeed(t *testing.T) {
	s := newTestSession(&mockGenerator{})

	for i := 0; i < 100; i++ {
		v := s.RandomizeSeed()
		assert.GreaterOrEqual(t, v, int64(0))
		assert.LessOrEqual(t, v, int64(domain.MaxSeed))
	}

	s.randSeed = func() int64 { return 4242 }
	assert.Equal(t, int64(4242), s.RandomizeSeed())
	assert.Equal(t, int64(4242), *s.Snapshot().Seed)
}

func TestSession_SetSeed(t *testing.T) {
	s := newTestSession(&mockGenerator{})

	ok := int64(domain.MaxSeed)
	require.NoError(t, s.SetSeed(&ok))
	assert.Equal(t, ok, *s.Snapshot().Seed)

	t.Run("int32 を超えるシードは拒否し、値を変えないのだ", func(t *testing.T) {
		tooBig := int64(domain.MaxSeed) + 1
		err := s.SetSeed(&tooBig)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Equal(t, ok, *s.Snapshot().Seed)
	})

	t.Run("nil で解除できるのだ", func(t *testing.T) {
		require.NoError(t, s.SetSeed(nil))
		assert.Nil(t, s.Snapshot().Seed)
	})
}

func TestSession_Subscribe(t *testing.T) {
	s := newTestSession(&mockGenerator{})
	var events []EventKind
	s.Subscribe(func(ev Event) {
		assert.Equal(t, "test", ev.SessionID)
		events = append(events, ev.Kind)
	})

	require.NoError(t, s.LoadImage(handle(10, 10)))
	s.SetPrompt("p")
	s.ClearReference()
	s.StartNew()

	assert.Equal(t, []EventKind{EventImage, EventPrompt, EventReference, EventReset}, events)
}
