package business

// Canned business data serving the demo backends. Real deployments swap
// these sources for ERP / OMS / WMS clients behind the same interfaces.

var orderDataset = map[string]map[string]interface{}{
	"ORD-202401001": {
		"order_id":    "ORD-202401001",
		"status":      "shipped",
		"items":       []interface{}{"智能手表 SKU-001 x1"},
		"amount":      1299.00,
		"tracking_no": "SF1234567890",
		"created_at":  "2024-01-05T10:21:00+08:00",
	},
	"ORD-202401002": {
		"order_id":   "ORD-202401002",
		"status":     "processing",
		"items":      []interface{}{"蓝牙耳机 SKU-002 x2"},
		"amount":     598.00,
		"created_at": "2024-01-08T15:02:00+08:00",
	},
}

var logisticsDataset = map[string]map[string]interface{}{
	"SF1234567890": {
		"tracking_no": "SF1234567890",
		"carrier":     "顺丰速运",
		"status":      "in_transit",
		"checkpoints": []interface{}{
			map[string]interface{}{"time": "2024-01-06T09:00:00+08:00", "desc": "已揽收"},
			map[string]interface{}{"time": "2024-01-07T12:30:00+08:00", "desc": "运输中，到达杭州中转场"},
			map[string]interface{}{"time": "2024-01-08T08:10:00+08:00", "desc": "派送中"},
		},
	},
}

var productDataset = map[string]map[string]interface{}{
	"SKU-001": {
		"sku":         "SKU-001",
		"name":        "智能手表",
		"price":       1299.00,
		"stock":       50,
		"description": "支持心率监测与消息提醒的智能手表",
	},
	"SKU-002": {
		"sku":         "SKU-002",
		"name":        "蓝牙耳机",
		"price":       299.00,
		"stock":       120,
		"description": "半入耳式蓝牙耳机，续航 24 小时",
	},
	"SKU-003": {
		"sku":         "SKU-003",
		"name":        "便携充电宝",
		"price":       159.00,
		"stock":       0,
		"description": "10000mAh 双口快充充电宝",
	},
}

var recommendationDataset = []interface{}{
	map[string]interface{}{"sku": "SKU-001", "name": "智能手表", "reason": "本月热销"},
	map[string]interface{}{"sku": "SKU-002", "name": "蓝牙耳机", "reason": "好评率最高"},
	map[string]interface{}{"sku": "SKU-003", "name": "便携充电宝", "reason": "出行必备"},
}
