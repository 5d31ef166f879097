package ports

// EventBroadcaster pushes live progress events (scan lifecycle, enrichment
// progress, report transitions) to connected dashboard clients.
type EventBroadcaster interface {
	Broadcast(eventType string, payload interface{})
}
