// Package queue defines message payloads exchanged over the message broker.
package queue

// LocationApprovedEvent is published whenever an admin changes a parking
// location's approval state (both directions). It carries enough context
// for downstream consumers to log or notify without querying the primary
// database.
type LocationApprovedEvent struct {
	LocationID uint64 `json:"location_id"`
	Title      string `json:"title"`
	City       string `json:"city"`
	OwnerID    uint64 `json:"owner_id"`
	AdminID    uint64 `json:"admin_id"`
	Approved   bool   `json:"approved"`
	OccurredAt string `json:"occurred_at"`
}
