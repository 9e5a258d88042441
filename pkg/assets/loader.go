package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/imgutil"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// Loader は gs://、http(s)://、ローカルパスから画像を読み込み、アップロード検証を通した ImageHandle を返します。
type Loader struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
}

// NewLoader は Loader を初期化します。reader は nil を許容し、その場合 gs:// は扱えません。
func NewLoader(httpClient httpkit.ClientInterface, reader remoteio.InputReader) (*Loader, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Loader{httpClient: httpClient, reader: reader}, nil
}

// Load は src の種類に応じて画像を取得し、形式とサイズを検証します。
func (l *Loader) Load(ctx context.Context, src string) (domain.ImageHandle, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return domain.ImageHandle{}, domain.Validationf("图片来源不能为空。")
	}

	data, err := l.fetch(ctx, src)
	if err != nil {
		return domain.ImageHandle{}, err
	}
	return imgutil.ValidateUpload(data)
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "gs://"):
		if l.reader == nil {
			return nil, domain.Validationf("不支持 gs:// 图片来源。")
		}
		rc, err := l.reader.Open(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrUpstream, src, err)
		}
		defer rc.Close()
		return readLimited(rc)

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if safe, err := IsSafeURL(src); err != nil || !safe {
			slog.WarnContext(ctx, "SSRFの可能性がある、または不正なURLをブロックしました", "url", src, "error", err)
			return nil, domain.Validationf("安全ではないURLが指定されました: %v", err)
		}
		data, err := l.httpClient.FetchBytes(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %w", domain.ErrUpstream, src, err)
		}
		return data, nil

	default:
		f, err := os.Open(src)
		if err != nil {
			return nil, domain.Validationf("无法读取文件: %v", err)
		}
		defer f.Close()
		return readLimited(f)
	}
}

// readLimited は上限を 1 バイト超えるまで読み、サイズ超過の判定を ValidateUpload に任せます。
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, imgutil.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read image: %w", domain.ErrUpstream, err)
	}
	return data, nil
}
