package buffer

import (
	"io"
	"sync"

	"github.com/govdp/vdp/internal/logging"
)

var logger = logging.NewLogger("vdp/buffer")

// Collaborator is notified when buffers are cleared so that parallel
// consumers of buffer IDs (bitmap storage, the sample store) can react.
type Collaborator interface {
	// BufferCleared is called after buffer id has been removed.
	BufferCleared(id uint16)
	// AllCleared is called after the whole store has been cleared.
	AllCleared()
}

// Store maps buffer IDs to ordered lists of shared blocks.
//
// A key whose block list has become empty is retained; Exists reports the
// presence of the key, not of data. ReservedID is never stored.
type Store struct {
	mu            sync.Mutex
	buffers       map[uint16][]*Block
	collaborators []Collaborator
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{buffers: make(map[uint16][]*Block)}
}

// AddCollaborator registers a collaborator for clear notifications.
func (s *Store) AddCollaborator(c Collaborator) {
	s.mu.Lock()
	s.collaborators = append(s.collaborators, c)
	s.mu.Unlock()
}

// Write reads length bytes from src and appends them to buffer id as one new
// block. On a short read the partial data is discarded and the number of
// bytes still outstanding is returned; on success it returns 0. Writes to
// ReservedID consume the stream but store nothing.
func (s *Store) Write(id uint16, length int, src io.ByteReader) int {
	data := make([]byte, length)
	for i := 0; i < length; i++ {
		c, err := src.ReadByte()
		if err != nil {
			logger.Debugf("write: timed out for buffer %d (%d bytes remaining)", id, length-i)
			return length - i
		}
		data[i] = c
	}
	if id == ReservedID {
		logger.Debugf("write: ignoring buffer %d", id)
		return 0
	}
	s.mu.Lock()
	s.buffers[id] = append(s.buffers[id], BlockFrom(data))
	n := len(s.buffers[id])
	s.mu.Unlock()
	logger.Debugf("write: stored block in buffer %d, length %d, %d blocks stored", id, length, n)
	return 0
}

// Create allocates a single zero-filled writable block of the given size
// under id. It fails, returning nil, if id is reserved or already exists.
func (s *Store) Create(id uint16, size int) *Block {
	if id == ReservedID {
		logger.Debugf("create: buffer %d is reserved", id)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buffers[id]; ok {
		logger.Debugf("create: buffer %d already exists", id)
		return nil
	}
	b := NewWritableBlock(size)
	s.buffers[id] = []*Block{b}
	logger.Debugf("create: created buffer %d, size %d", id, size)
	return b
}

// Clear removes buffer id and notifies collaborators. Clearing ReservedID
// empties the whole store and resets collaborators instead.
func (s *Store) Clear(id uint16) {
	s.mu.Lock()
	if id == ReservedID {
		s.buffers = make(map[uint16][]*Block)
		collabs := s.collaborators
		s.mu.Unlock()
		for _, c := range collabs {
			c.AllCleared()
		}
		return
	}
	_, ok := s.buffers[id]
	delete(s.buffers, id)
	collabs := s.collaborators
	s.mu.Unlock()
	if !ok {
		logger.Debugf("clear: buffer %d not found", id)
		return
	}
	for _, c := range collabs {
		c.BufferCleared(id)
	}
	logger.Debugf("clear: cleared buffer %d", id)
}

// Reset empties buffer id's block list in place, keeping the key, without
// notifying collaborators. Split and spread use this to prepare targets.
func (s *Store) Reset(id uint16) {
	s.mu.Lock()
	if _, ok := s.buffers[id]; ok {
		s.buffers[id] = nil
	}
	s.mu.Unlock()
}

// Exists reports whether id is a known buffer key.
func (s *Store) Exists(id uint16) bool {
	s.mu.Lock()
	_, ok := s.buffers[id]
	s.mu.Unlock()
	return ok
}

// Blocks returns the block list stored under id. The second return reports
// whether the key exists. The slice must be treated as read-only; blocks
// themselves are shared and mutable.
func (s *Store) Blocks(id uint16) ([]*Block, bool) {
	s.mu.Lock()
	blocks, ok := s.buffers[id]
	s.mu.Unlock()
	return blocks, ok
}

// Append adds a block to the end of buffer id, creating the key if needed.
func (s *Store) Append(id uint16, b *Block) {
	if id == ReservedID {
		return
	}
	s.mu.Lock()
	s.buffers[id] = append(s.buffers[id], b)
	s.mu.Unlock()
}

// Replace installs blocks as the complete content of buffer id.
func (s *Store) Replace(id uint16, blocks []*Block) {
	if id == ReservedID {
		return
	}
	s.mu.Lock()
	s.buffers[id] = blocks
	s.mu.Unlock()
}

// Size returns the total byte size of buffer id across all its blocks.
func (s *Store) Size(id uint16) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, b := range s.buffers[id] {
		total += b.Size()
	}
	return total
}

// IDs returns the currently stored buffer keys in unspecified order.
func (s *Store) IDs() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint16, 0, len(s.buffers))
	for id := range s.buffers {
		ids = append(ids, id)
	}
	return ids
}
