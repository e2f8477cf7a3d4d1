package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/feinime/feinime/internal/model"
)

// StorageKey は永続化されたidentityのキー。
const StorageKey = "feinime_user"

// Storage はidentityの永続化先。
// Loadは保存されていない場合に(nil, nil)を返す。
type Storage interface {
	Load() (*model.User, error)
	Save(u model.User) error
	Clear() error
}

// storedUser は永続化するidentityのJSON表現。
type storedUser struct {
	GoogleID string `json:"google_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Picture  string `json:"picture"`
}

func toStored(u model.User) storedUser {
	return storedUser{GoogleID: u.GoogleID, Name: u.Name, Email: u.Email, Picture: u.Picture}
}

func (s storedUser) user() model.User {
	return model.User{GoogleID: s.GoogleID, Name: s.Name, Email: s.Email, Picture: s.Picture}
}

// FileStorage はJSONファイルにidentityを保存する。
// ファイルは {"feinime_user": {...}} の形で、一時ファイルからのrenameで置き換える。
type FileStorage struct {
	path string
}

// NewFileStorage はFileStorageを生成する。
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Load はファイルからidentityを読み込む。
func (s *FileStorage) Load() (*model.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var doc map[string]*storedUser
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("session file is corrupt: %w", err)
	}
	stored := doc[StorageKey]
	if stored == nil {
		return nil, nil
	}
	if stored.GoogleID == "" {
		return nil, errors.New("session file has no google_id")
	}
	u := stored.user()
	return &u, nil
}

// Save はidentityをファイルに書き込む。
func (s *FileStorage) Save(u model.User) error {
	data, err := json.MarshalIndent(map[string]storedUser{StorageKey: toStored(u)}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".feinime-session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Clear はファイルを削除する。存在しなくてもエラーにしない。
func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStorage はプロセス内にidentityを保持するStorage。
type MemoryStorage struct {
	mu   sync.Mutex
	user *model.User
}

// NewMemoryStorage は空のMemoryStorageを生成する。
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load は保持しているidentityを返す。
func (s *MemoryStorage) Load() (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

// Save はidentityを保持する。
func (s *MemoryStorage) Save(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
	return nil
}

// Clear は保持しているidentityを破棄する。
func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}

var (
	_ Storage = (*FileStorage)(nil)
	_ Storage = (*MemoryStorage)(nil)
)
