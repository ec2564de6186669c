// Package cart defines the domain model for the meal-cart tracking service:
// the Cart entity, its location states, the immutable HistoryEntry record,
// and the fixed default fleet the service seeds on first boot.
package cart
