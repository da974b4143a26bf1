package flow

import "sync"

// Clipboard is where CopyPixKey writes the key.
type Clipboard interface {
	WriteText(text string) error
}

// MemoryClipboard keeps the last text written. The HTTP layer hands it back
// to the browser, which owns the real clipboard.
type MemoryClipboard struct {
	mu   sync.RWMutex
	text string
}

func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{}
}

func (m *MemoryClipboard) WriteText(text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}

func (m *MemoryClipboard) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.text
}
