package domain

// OrderCreated is published through the transactional outbox when checkout
// commits.
type OrderCreated struct {
	OrderUUID string             `json:"order_uuid"`
	UserUUID  string             `json:"user_uuid"`
	Total     string             `json:"total"`
	Lines     []OrderCreatedLine `json:"lines"`
}

type OrderCreatedLine struct {
	ProductUUID string `json:"product_uuid"`
	Quantity    int32  `json:"quantity"`
}
