package orders

const (
	// TopicOrders carries OrderPlaced / OrderCancelled / OrderUpdated.
	TopicOrders = "sale.orders"

	// TopicSaleEnded carries the administrative SaleEnded sweep result.
	TopicSaleEnded = "sale.ended"
)

// Partition key = order_id so all events for one order stay in order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
