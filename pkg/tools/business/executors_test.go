package business

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-gateway-be/pkg/cache"
)

func TestLookupOrderExecutor(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))
	exec, ok := reg.Lookup("lookup_order")
	require.True(t, ok)

	payload, err := exec.Execute(context.Background(), "查询订单 ord-202401001 的状态")
	require.NoError(t, err)
	assert.Equal(t, "ORD-202401001", payload["order_id"])
	assert.Equal(t, "shipped", payload["status"])
	assert.Equal(t, "SF1234567890", payload["tracking_no"])
}

func TestLookupOrderExecutorUnknownOrder(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))
	exec, _ := reg.Lookup("lookup_order")

	_, err := exec.Execute(context.Background(), "订单 ORD-999999999 在哪")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLookupOrderExecutorNoIdentifier(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))
	exec, _ := reg.Lookup("lookup_order")

	_, err := exec.Execute(context.Background(), "我的订单呢")
	assert.Error(t, err)
}

type countingOrderSource struct {
	inner OrderSource
	calls int
}

func (c *countingOrderSource) FindOrder(id string) (map[string]interface{}, error) {
	c.calls++
	return c.inner.FindOrder(id)
}

func TestLookupOrderExecutorCacheFirst(t *testing.T) {
	orders, _, _ := NewMemorySources()
	counting := &countingOrderSource{inner: orders}
	store := cache.NewMemoryStore(time.Minute)
	exec := &lookupOrderExecutor{source: counting, store: store}

	for i := 0; i < 3; i++ {
		_, err := exec.Execute(context.Background(), "order ORD-202401001")
		require.NoError(t, err)
	}

	assert.Equal(t, 1, counting.calls, "repeated lookups must be served from cache")
}

func TestCheckLogisticsExecutorByTrackingNo(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))
	exec, _ := reg.Lookup("check_logistics")

	payload, err := exec.Execute(context.Background(), "快递 SF1234567890 到哪了")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", payload["status"])
	assert.Equal(t, "顺丰速运", payload["carrier"])
}

func TestCheckLogisticsExecutorResolvesViaOrder(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))
	exec, _ := reg.Lookup("check_logistics")

	payload, err := exec.Execute(context.Background(), "订单 ORD-202401001 的物流")
	require.NoError(t, err)
	assert.Equal(t, "SF1234567890", payload["tracking_no"])
}

func TestProductAndInventoryExecutors(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))

	info, _ := reg.Lookup("product_info")
	payload, err := info.Execute(context.Background(), "SKU-001 的价格")
	require.NoError(t, err)
	assert.Equal(t, "智能手表", payload["name"])

	inv, _ := reg.Lookup("check_inventory")
	payload, err = inv.Execute(context.Background(), "sku-003 有货吗")
	require.NoError(t, err)
	assert.Equal(t, false, payload["in_stock"])
}

func TestRecommendationsExecutor(t *testing.T) {
	reg := NewRegistry(cache.NewMemoryStore(time.Minute))
	exec, _ := reg.Lookup("get_product_recommendations")

	payload, err := exec.Execute(context.Background(), "有什么推荐的商品")
	require.NoError(t, err)
	items, ok := payload["recommendations"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, items)
}

type failingOrderSource struct{}

func (failingOrderSource) FindOrder(id string) (map[string]interface{}, error) {
	return nil, fmt.Errorf("oms offline")
}

func TestCacheSurvivesSourceOutage(t *testing.T) {
	orders, _, _ := NewMemorySources()
	store := cache.NewMemoryStore(time.Minute)

	warm := &lookupOrderExecutor{source: orders, store: store}
	_, err := warm.Execute(context.Background(), "ORD-202401001")
	require.NoError(t, err)

	cold := &lookupOrderExecutor{source: failingOrderSource{}, store: store}
	payload, err := cold.Execute(context.Background(), "ORD-202401001")
	require.NoError(t, err)
	assert.Equal(t, "shipped", payload["status"])
}
