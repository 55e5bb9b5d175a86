package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Set сохраняет значение в кеше
	Set(key string, value interface{}, expiration time.Duration) error

	// Get получает значение из кеша
	Get(key string) (string, error)

	// Delete удаляет значение из кеша
	Delete(key string) error

	// Exists проверяет существование ключа
	Exists(key string) (bool, error)

	// Increment атомарно увеличивает значение на 1
	Increment(key string) (int64, error)

	// SetJSON сохраняет структуру JSON в кеше
	SetJSON(key string, value interface{}, expiration time.Duration) error

	// GetJSON получает структуру JSON из кеша
	GetJSON(key string, dest interface{}) error

	// SetNX устанавливает значение ключа, только если ключ не существует.
	// Возвращает true, если ключ был установлен, false - если ключ уже существовал.
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
