package nats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPingWithoutConnection(t *testing.T) {
	p := &Publisher{}

	err := p.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}
