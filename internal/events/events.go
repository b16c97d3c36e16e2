package events

// Catalog event types recorded by the administrative services.
const (
	EventProviderCreated = "provider.created"
	EventProviderUpdated = "provider.updated"
	EventProviderDeleted = "provider.deleted"
	EventItemCreated     = "item.created"
	EventItemUpdated     = "item.updated"
	EventItemDeleted     = "item.deleted"
	EventProductCreated  = "product.created"
	EventProductUpdated  = "product.updated"
	EventProductDeleted  = "product.deleted"
	EventAllocationSet   = "product.allocation_set"
	EventMultipliersSet  = "product.multipliers_set"
	EventContractCreated = "contract.created"
	EventContractUpdated = "contract.updated"
	EventContractDeleted = "contract.deleted"
	EventTierSelected    = "contract.tier_selected"
	EventOfferCreated    = "offer.created"
	EventOfferUpdated    = "offer.updated"
	EventOfferDeleted    = "offer.deleted"
)
