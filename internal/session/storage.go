package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Ключи долговременного хранилища сессии
const (
	AdminAuthKey   = "adminAuth"
	ManagerAuthKey = "managerAuth"
)

// Storage долговременное хранилище сессии на стороне клиента
type Storage interface {
	// Get возвращает значение и признак его наличия
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// FileStorage хранит каждое значение в отдельном файле каталога
type FileStorage struct {
	dir string
}

// NewFileStorage создает хранилище в каталоге dir; пустой dir означает ~/.rewardctl
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("ошибка получения домашней директории: %w", err)
		}
		dir = filepath.Join(home, ".rewardctl")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", dir, err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir каталог хранилища
func (s *FileStorage) Dir() string {
	return s.dir
}

// Get читает значение из файла
func (s *FileStorage) Get(key string) (string, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("ошибка чтения %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set атомарно записывает значение: временный файл переименовывается поверх старого
func (s *FileStorage) Set(key, value string) error {
	tmp, err := os.CreateTemp(s.dir, "."+key+"-*")
	if err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("ошибка сохранения %s: %w", key, err)
	}
	return nil
}

// Remove удаляет файл значения; отсутствие файла не ошибка
func (s *FileStorage) Remove(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key)
}

// MemoryStorage хранилище в памяти процесса
type MemoryStorage struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStorage создает пустое хранилище
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get возвращает значение
func (s *MemoryStorage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set записывает значение
func (s *MemoryStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove удаляет значение
func (s *MemoryStorage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
