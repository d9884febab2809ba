package market

const (
	TopicOrderReserved = "order.reserved"
	TopicSaleApproved  = "order.approved"
)

// Partition key = order_id so all events for one order stay ordered.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
