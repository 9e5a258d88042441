package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

// Store はセッションを ID で保持します。
type Store struct {
	gen generator.ImageGenerator

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore は Store を初期化します。
func NewStore(gen generator.ImageGenerator) *Store {
	return &Store{gen: gen, sessions: make(map[string]*Session)}
}

// Create は新しいセッションを作成して登録します。
func (s *Store) Create() *Session {
	sess := New(uuid.NewString(), s.gen)
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	return sess
}

// Get は ID に対応するセッションを返します。
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete はセッションを破棄します。
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.StartNew()
	delete(s.sessions, id)
	return true
}

// Len は保持しているセッション数を返します。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
