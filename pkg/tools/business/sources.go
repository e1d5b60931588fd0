package business

import "fmt"

// OrderSource answers order lookups.
type OrderSource interface {
	FindOrder(orderID string) (map[string]interface{}, error)
}

// LogisticsSource answers tracking lookups.
type LogisticsSource interface {
	Track(trackingNo string) (map[string]interface{}, error)
}

// ProductSource answers product, inventory and recommendation queries.
type ProductSource interface {
	FindProduct(sku string) (map[string]interface{}, error)
	Stock(sku string) (map[string]interface{}, error)
	Recommend() ([]interface{}, error)
}

type memorySources struct{}

// NewMemorySources returns the canned-dataset implementation of all three
// source interfaces.
func NewMemorySources() (OrderSource, LogisticsSource, ProductSource) {
	s := &memorySources{}
	return s, s, s
}

func (s *memorySources) FindOrder(orderID string) (map[string]interface{}, error) {
	if order, ok := orderDataset[orderID]; ok {
		return order, nil
	}
	return nil, fmt.Errorf("order not found: %s", orderID)
}

func (s *memorySources) Track(trackingNo string) (map[string]interface{}, error) {
	if rec, ok := logisticsDataset[trackingNo]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("tracking record not found: %s", trackingNo)
}

func (s *memorySources) FindProduct(sku string) (map[string]interface{}, error) {
	if p, ok := productDataset[sku]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("product not found: %s", sku)
}

func (s *memorySources) Stock(sku string) (map[string]interface{}, error) {
	p, ok := productDataset[sku]
	if !ok {
		return nil, fmt.Errorf("product not found: %s", sku)
	}
	return map[string]interface{}{
		"sku":      p["sku"],
		"name":     p["name"],
		"stock":    p["stock"],
		"in_stock": toInt(p["stock"]) > 0,
	}, nil
}

func (s *memorySources) Recommend() ([]interface{}, error) {
	return recommendationDataset, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
