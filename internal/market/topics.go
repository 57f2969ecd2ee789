package market

const (
	TopicRequestCreated = "market.request.created"
	TopicRequestClosed  = "market.request.closed"
	TopicOfferCreated   = "market.offer.created"
	TopicOfferDecided   = "market.offer.decided"
)

// Partition key = request id, so every event of one request keeps order.
func PartitionKey(requestID string) []byte { return []byte(requestID) }
