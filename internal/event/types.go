package event

// EventType represents the type of event.
type EventType string

const (
	// DatabaseSwitched is published once a storage switch has completed
	// and the new store is serving requests.
	DatabaseSwitched EventType = "database.switched"

	// ServerConnected is the first event written to every SSE stream.
	ServerConnected EventType = "server.connected"
)

// DatabaseSwitchedData is the data for database.switched events.
type DatabaseSwitchedData struct {
	Path string `json:"path"`
}
