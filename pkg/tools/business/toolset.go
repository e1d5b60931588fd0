package business

import (
	"smart-gateway-be/pkg/cache"
	"smart-gateway-be/pkg/tools"
)

// NewToolset wires the business tools into an ordered definition list.
// Declaration order is routing priority: the first tool whose trigger
// table matches the query wins.
func NewToolset(store cache.Store, orders OrderSource, logistics LogisticsSource, products ProductSource) []tools.Definition {
	return []tools.Definition{
		{
			Executor: &lookupOrderExecutor{source: orders, store: store},
			Triggers: []string{"订单", "order", "ord", "购买记录", "账单"},
		},
		{
			Executor: &checkLogisticsExecutor{source: logistics, orderSource: orders, store: store},
			Triggers: []string{"物流", "快递", "logistics", "tracking", "包裹", "顺丰", "发货"},
		},
		{
			Executor: &productInfoExecutor{source: products, store: store},
			Triggers: []string{"商品", "产品", "product", "sku", "价格", "参数"},
		},
		{
			Executor: &checkInventoryExecutor{source: products},
			Triggers: []string{"库存", "现货", "stock", "inventory", "有货"},
		},
		{
			Executor: &recommendationsExecutor{source: products},
			Triggers: []string{"推荐", "建议", "热销", "recommend"},
		},
	}
}

// NewRegistry builds a registry preloaded with the default toolset.
func NewRegistry(store cache.Store) *tools.Registry {
	orders, logistics, products := NewMemorySources()
	reg := tools.NewRegistry()
	for _, def := range NewToolset(store, orders, logistics, products) {
		reg.Register(def)
	}
	return reg
}
