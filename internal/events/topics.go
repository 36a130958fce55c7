package events

// Topic constants for domain events emitted by the platform.
const (
	TopicCartItemAdded   = "cart.item_added"
	TopicCartItemUpdated = "cart.item_updated"
	TopicCartItemRemoved = "cart.item_removed"
	TopicCartCleared     = "cart.cleared"
	TopicCouponApplied   = "cart.coupon_applied"
	TopicCouponRemoved   = "cart.coupon_removed"
	TopicProductCreated  = "catalog.product_created"
	TopicProductUpdated  = "catalog.product_updated"
	TopicProductDeleted  = "catalog.product_deleted"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicCartItemAdded,
		TopicCartItemUpdated,
		TopicCartItemRemoved,
		TopicCartCleared,
		TopicCouponApplied,
		TopicCouponRemoved,
		TopicProductCreated,
		TopicProductUpdated,
		TopicProductDeleted,
	}
}
