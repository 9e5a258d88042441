package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation はクライアント側で完結する入力エラーです。ネットワーク呼び出しは行われません。
	ErrValidation = errors.New("validation error")
	// ErrServiceUnavailable は APIキーが未設定または無効な場合のエラーです。
	ErrServiceUnavailable = errors.New("AI服务未初始化")
	// ErrUpstream は外部サービスの呼び出し失敗、または想定外の応答です。
	ErrUpstream = errors.New("upstream failure")
	// ErrTextInsteadOfImage は画像の代わりにテキストが返された（生成拒否）ことを示します。
	ErrTextInsteadOfImage = fmt.Errorf("%w: AI返回了文本而非图像", ErrUpstream)
	// ErrBusy は同種のリクエストが処理中であることを示します。
	ErrBusy = errors.New("request already in flight")
)

// Validationf はユーザー向けメッセージ付きの ErrValidation を作成します。
func Validationf(format string, args ...any) error {
	return &UserError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// UserError はトースト表示用のメッセージと分類用のセンチネルを併せ持つエラーです。
type UserError struct {
	kind error
	msg  string
}

func (e *UserError) Error() string { return e.msg }

func (e *UserError) Unwrap() error { return e.kind }
