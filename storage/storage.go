// Package storage models the browser key/value stores the demo persists to:
// a session-scoped store (one tab, expires) and a durable store.
package storage

import (
	"encoding/json"
	"fmt"
)

// Store is a string-keyed byte store. Get reports false when the key is absent.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// GetJSON decodes the value stored at key into v.
func GetJSON(s Store, key string, v any) (bool, error) {
	b, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, b)
}

// GetString returns the raw value at key as a string.
func GetString(s Store, key string) (string, bool, error) {
	b, ok, err := s.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(b), true, nil
}
