package repository

import (
	"encoding/json"
	"fmt"
)

// Store is a flat string key-value store that survives restarts.
// It does not look at the stored values; callers own the encoding.
type Store interface {
	// Get returns the value and true, or "" and false when the key is absent.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	// Clear removes every key.
	Clear() error
	Keys() ([]string, error)
	Close() error
}

// GetJSON decodes the value stored at key into v.
// A missing or unparseable value leaves v untouched and reports false.
func GetJSON(s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores v encoded as JSON at key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

// RemoveKeys removes each key, stopping at the first failure.
func RemoveKeys(s Store, keys ...string) error {
	for _, k := range keys {
		if err := s.Remove(k); err != nil {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}
