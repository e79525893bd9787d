package store

import (
	"fmt"
	"testing"
)

func TestKeyCache_Basic(t *testing.T) {
	cache := NewKeyCache(100, 0.001)

	if cache.Has("thebeatles|heyju") {
		t.Error("Empty cache should not have any keys")
	}

	if cache.Size() != 0 {
		t.Errorf("Empty cache size should be 0, got %d", cache.Size())
	}

	cache.Add("thebeatles|heyju")
	if !cache.Has("thebeatles|heyju") {
		t.Error("Cache should have key after adding")
	}

	if cache.Size() != 1 {
		t.Errorf("Cache size should be 1 after adding one key, got %d", cache.Size())
	}

	// Duplicate addition does not grow the cache.
	cache.Add("thebeatles|heyju")
	if cache.Size() != 1 {
		t.Errorf("Cache size should still be 1 after adding duplicate, got %d", cache.Size())
	}

	cache.Add("radiohead|creep")
	if cache.Size() != 2 {
		t.Errorf("Cache size should be 2, got %d", cache.Size())
	}
}

func TestKeyCache_Eviction(t *testing.T) {
	cache := NewKeyCache(3, 0.001)

	for i := 0; i < 5; i++ {
		cache.Add(fmt.Sprintf("key%d", i))
	}

	if cache.Size() != 3 {
		t.Errorf("Cache size should be capped at 3, got %d", cache.Size())
	}

	if !cache.Has("key4") {
		t.Error("Most recently added key should survive eviction")
	}
}

func TestKeyCache_Clear(t *testing.T) {
	cache := NewKeyCache(100, 0.001)
	cache.Add("key1")
	cache.Add("key2")

	cache.Clear()

	if cache.Size() != 0 {
		t.Errorf("Cache size should be 0 after Clear, got %d", cache.Size())
	}
	if cache.Has("key1") {
		t.Error("Cache should not have keys after Clear")
	}
}
