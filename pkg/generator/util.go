package generator

import (
	"errors"
	"fmt"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// seedToPtrInt32 は domain の *int64 を SDK 用の *int32 に変換するのだ。
// int32 に収まらない値は丸めずに nil を返すのだ。
func seedToPtrInt32(s *int64) *int32 {
	if s == nil || *s < 0 || *s > domain.MaxSeed {
		return nil
	}
	v := int32(*s)
	return &v
}

// dereferenceSeed は *int64 を安全に int64 に変換するのだ。
// nil の場合はデフォルト値（0）を返すのだよ。
func dereferenceSeed(s *int64) int64 {
	if s == nil {
		return 0
	}
	return *s
}

// wrapUpstream は通信エラーを分類付きでラップします。
// サービス未初期化は上流エラーとは別扱いのまま返します。
func wrapUpstream(op string, err error) error {
	if errors.Is(err, domain.ErrServiceUnavailable) || errors.Is(err, domain.ErrUpstream) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstream, err)
}
