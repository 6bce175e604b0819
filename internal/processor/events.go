package processor

import "sync"

// EventKind identifies a progress event
type EventKind string

const (
	EventFolderStarted      EventKind = "folder_started"
	EventFolderSkipped      EventKind = "folder_skipped"
	EventFolderFinished     EventKind = "folder_finished"
	EventDetectionRejected  EventKind = "detection_file_rejected"
	EventTableWritten       EventKind = "table_written"
	EventRecordingExtracted EventKind = "recording_extracted"
)

// Event is a progress notification. Done and Total count the items of the
// current stage within Folder.
type Event struct {
	Kind    EventKind
	Folder  string
	Item    string // file or recording name
	Done    int
	Total   int
	Message string
}

// ProgressFunc receives progress events. Calls are serialized.
type ProgressFunc func(Event)

// emitter serializes progress callbacks from concurrent workers
type emitter struct {
	mu sync.Mutex
	fn ProgressFunc
}

func (e *emitter) emit(ev Event) {
	if e == nil || e.fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fn(ev)
}
