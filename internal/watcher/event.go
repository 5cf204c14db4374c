package watcher

import "time"

// EventType is the kind of settled change.
type EventType int

// Event types.
const (
	EventAdded    EventType = iota // a file not seen before settled
	EventModified                  // a known file changed and settled
	EventRemoved                   // a file was deleted or renamed away
)

var eventTypeNames = [...]string{
	EventAdded:    "added",
	EventModified: "modified",
	EventRemoved:  "removed",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return "unknown"
	}
	return eventTypeNames[t]
}

// Event is a settled file system change. Size and ModTime are zero for
// removals.
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}
