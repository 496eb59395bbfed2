package dispatch

import (
	"sync"
)

// ModalSink opens and closes UI dialogs
type ModalSink interface {
	Open(id string, content any)
	Close(id string)
}

// Modal is an open dialog
type Modal struct {
	ID      string `json:"id"`
	Content any    `json:"content"`
}

// Notice is the content of an informational dialog
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// RecordingSink collects modals so they can be returned to an HTTP client.
// It is safe for concurrent use.
type RecordingSink struct {
	mu     sync.Mutex
	modals []Modal
}

// NewRecordingSink creates an empty sink
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Open opens id, replacing an already open modal with the same id
func (s *RecordingSink) Open(id string, content any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.modals {
		if s.modals[i].ID == id {
			s.modals[i].Content = content
			return
		}
	}
	s.modals = append(s.modals, Modal{ID: id, Content: content})
}

// Close closes id; closing a modal that is not open does nothing
func (s *RecordingSink) Close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.modals {
		if s.modals[i].ID == id {
			s.modals = append(s.modals[:i], s.modals[i+1:]...)
			return
		}
	}
}

// Modals returns the open modals in the order they were opened
func (s *RecordingSink) Modals() []Modal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Modal, len(s.modals))
	copy(out, s.modals)
	return out
}

type discardSink struct{}

func (discardSink) Open(string, any) {}
func (discardSink) Close(string)     {}
