package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCanonicalization(t *testing.T) {
	tests := []struct {
		kind  string
		param string
		want  string
	}{
		{"order", "ord-202401001", "order:ORD-202401001"},
		{"order", "  ORD-202401001  ", "order:ORD-202401001"},
		{"logistics", "sf1234567890", "logistics:SF1234567890"},
		{"product", "Sku-001", "product:SKU-001"},
	}
	for _, tt := range tests {
		if got := Key(tt.kind, tt.param); got != tt.want {
			t.Errorf("Key(%q, %q) = %q, want %q", tt.kind, tt.param, got, tt.want)
		}
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	key := Key("order", "ORD-1")

	_, found := store.Get(key)
	assert.False(t, found)

	store.Put(key, map[string]interface{}{"status": "shipped"}, time.Minute)

	got, found := store.Get(key)
	require.True(t, found)
	assert.Equal(t, "shipped", got["status"])

	store.Invalidate(key)
	_, found = store.Get(key)
	assert.False(t, found)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	key := Key("order", "ORD-2")

	store.Put(key, map[string]interface{}{"status": "processing"}, 20*time.Millisecond)

	_, found := store.Get(key)
	require.True(t, found, "entry must be visible before TTL")

	time.Sleep(40 * time.Millisecond)

	_, found = store.Get(key)
	assert.False(t, found, "entry must be gone after TTL")
}
