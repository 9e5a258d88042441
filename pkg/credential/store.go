package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// KeyName は APIキーを保存する固定のキー名です。
const KeyName = "gemini-api-key"

const (
	appDirName = "gemini-image-studio"
	fileName   = "credentials.yaml"
)

// ErrEmptyKey は空のキーを保存しようとした場合のエラーです。
var ErrEmptyKey = errors.New("请输入有效的 API 密钥")

// Store は Gemini の APIキーを1件だけ YAML ファイルに保存します。
type Store struct {
	path string

	mu       sync.RWMutex
	key      string
	fallback string
}

// DefaultPath はユーザー設定ディレクトリ配下の保存先を返します。
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(dir, appDirName, fileName), nil
}

// NewStore は path をファイルとする Store を作成します。読み込みは Load で行います。
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load はファイルからキーを読み込みます。ファイルがない場合は未設定として扱います。
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse credentials: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = strings.TrimSpace(values[KeyName])
	return nil
}

// UseFallback は保存済みのキーがない場合に使うキー（環境変数など）を設定します。
func (s *Store) UseFallback(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = strings.TrimSpace(key)
}

// APIKey は保存済みのキー、なければフォールバックを返します。
func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key != "" {
		return s.key
	}
	return s.fallback
}

// HasKey はキーが利用可能かどうかを返します。
func (s *Store) HasKey() bool {
	return s.APIKey() != ""
}

// Set はキーを保存します。
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(key); err != nil {
		return err
	}
	s.key = key
	return nil
}

// Clear は保存済みのキーを削除します。
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeLocked(""); err != nil {
		return err
	}
	s.key = ""
	return nil
}

func (s *Store) writeLocked(key string) error {
	values := map[string]string{}
	if key != "" {
		values[KeyName] = key
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
