package business

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"smart-gateway-be/pkg/cache"
)

var (
	orderIDPattern    = regexp.MustCompile(`(?i)\bORD[-_]?\d{6,}\b`)
	trackingNoPattern = regexp.MustCompile(`(?i)\bSF\d{6,}\b`)
	skuPattern        = regexp.MustCompile(`(?i)\bSKU[-_]?\d{3,}\b`)
)

const cacheTTL = 300 * time.Second

type lookupOrderExecutor struct {
	source OrderSource
	store  cache.Store
}

func (e *lookupOrderExecutor) Name() string { return "lookup_order" }

func (e *lookupOrderExecutor) Execute(ctx context.Context, query string) (map[string]interface{}, error) {
	raw := orderIDPattern.FindString(query)
	if raw == "" {
		return nil, fmt.Errorf("no order id found in query")
	}
	orderID := cache.Canonical(raw)
	key := cache.Key("order", orderID)
	if cached, ok := e.store.Get(key); ok {
		return cached, nil
	}
	order, err := e.source.FindOrder(orderID)
	if err != nil {
		return nil, err
	}
	e.store.Put(key, order, cacheTTL)
	return order, nil
}

type checkLogisticsExecutor struct {
	source      LogisticsSource
	orderSource OrderSource
	store       cache.Store
}

func (e *checkLogisticsExecutor) Name() string { return "check_logistics" }

// Execute resolves the tracking number either directly from the query or
// via the order id mentioned in it.
func (e *checkLogisticsExecutor) Execute(ctx context.Context, query string) (map[string]interface{}, error) {
	trackingNo := cache.Canonical(trackingNoPattern.FindString(query))
	if trackingNo == "" {
		if rawOrder := orderIDPattern.FindString(query); rawOrder != "" {
			order, err := e.orderSource.FindOrder(cache.Canonical(rawOrder))
			if err != nil {
				return nil, err
			}
			if tn, ok := order["tracking_no"].(string); ok {
				trackingNo = tn
			}
		}
	}
	if trackingNo == "" {
		return nil, fmt.Errorf("no tracking number found in query")
	}
	key := cache.Key("logistics", trackingNo)
	if cached, ok := e.store.Get(key); ok {
		return cached, nil
	}
	rec, err := e.source.Track(trackingNo)
	if err != nil {
		return nil, err
	}
	e.store.Put(key, rec, cacheTTL)
	return rec, nil
}

type productInfoExecutor struct {
	source ProductSource
	store  cache.Store
}

func (e *productInfoExecutor) Name() string { return "product_info" }

func (e *productInfoExecutor) Execute(ctx context.Context, query string) (map[string]interface{}, error) {
	raw := skuPattern.FindString(query)
	if raw == "" {
		return nil, fmt.Errorf("no sku found in query")
	}
	sku := cache.Canonical(raw)
	key := cache.Key("product", sku)
	if cached, ok := e.store.Get(key); ok {
		return cached, nil
	}
	product, err := e.source.FindProduct(sku)
	if err != nil {
		return nil, err
	}
	e.store.Put(key, product, cacheTTL)
	return product, nil
}

type checkInventoryExecutor struct {
	source ProductSource
}

func (e *checkInventoryExecutor) Name() string { return "check_inventory" }

func (e *checkInventoryExecutor) Execute(ctx context.Context, query string) (map[string]interface{}, error) {
	raw := skuPattern.FindString(query)
	if raw == "" {
		return nil, fmt.Errorf("no sku found in query")
	}
	return e.source.Stock(cache.Canonical(raw))
}

type recommendationsExecutor struct {
	source ProductSource
}

func (e *recommendationsExecutor) Name() string { return "get_product_recommendations" }

func (e *recommendationsExecutor) Execute(ctx context.Context, query string) (map[string]interface{}, error) {
	items, err := e.source.Recommend()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"recommendations": items}, nil
}
