package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"crowdsale/core/events"
	"crowdsale/storage"
)

// Manager is the journaled key/value view every engine reads and writes
// through. Values are RLP encoded and stored under keccak256 hashed keys.
// Writes stay in an in-memory overlay until Commit flushes them to the
// database in a single batch; RevertToSnapshot rolls the overlay back.
//
// Manager is not safe for concurrent use. The node serializes access.
type Manager struct {
	db        storage.Database
	dirty     map[string]dirtyValue
	journal   []journalEntry
	revisions []revision
	pending   []events.Event
	depth     int
	sink      events.Emitter
}

type dirtyValue struct {
	value   []byte
	deleted bool
}

type journalEntry struct {
	key     string
	prev    dirtyValue
	hadPrev bool
}

type revision struct {
	journal int
	events  int
}

// NewManager creates a state manager backed by db.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:    db,
		dirty: make(map[string]dirtyValue),
		sink:  events.NoopEmitter{},
	}
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

func (m *Manager) getRaw(key []byte) ([]byte, error) {
	hashed := kvKey(key)
	if entry, ok := m.dirty[string(hashed)]; ok {
		if entry.deleted {
			return nil, nil
		}
		return append([]byte(nil), entry.value...), nil
	}
	value, err := m.db.Get(hashed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager) setRaw(key []byte, value []byte, deleted bool) {
	hashed := string(kvKey(key))
	prev, hadPrev := m.dirty[hashed]
	m.journal = append(m.journal, journalEntry{key: hashed, prev: prev, hadPrev: hadPrev})
	m.dirty[hashed] = dirtyValue{value: append([]byte(nil), value...), deleted: deleted}
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.setRaw(key, encoded, false)
	return nil
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// out. The boolean reports whether the key existed.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.getRaw(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// KVDelete removes the value stored under key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	m.setRaw(key, nil, true)
	return nil
}

// Snapshot returns an identifier that RevertToSnapshot can roll back to.
func (m *Manager) Snapshot() int {
	m.revisions = append(m.revisions, revision{journal: len(m.journal), events: len(m.pending)})
	return len(m.revisions) - 1
}

// RevertToSnapshot undoes every write and drops every pending event recorded
// after the snapshot was taken.
func (m *Manager) RevertToSnapshot(id int) {
	if id < 0 || id >= len(m.revisions) {
		panic(fmt.Sprintf("state: revision %d cannot be reverted", id))
	}
	rev := m.revisions[id]
	for i := len(m.journal) - 1; i >= rev.journal; i-- {
		entry := m.journal[i]
		if entry.hadPrev {
			m.dirty[entry.key] = entry.prev
		} else {
			delete(m.dirty, entry.key)
		}
	}
	m.journal = m.journal[:rev.journal]
	m.pending = m.pending[:rev.events]
	m.revisions = m.revisions[:id]
}

// Commit writes the overlay to the database and delivers pending events to the
// sink. A failed write discards the overlay and the pending events.
func (m *Manager) Commit() error {
	batch := m.db.NewBatch()
	for key, entry := range m.dirty {
		if entry.deleted {
			batch.Delete([]byte(key))
			continue
		}
		batch.Put([]byte(key), entry.value)
	}
	pending := m.pending
	m.reset()
	if batch.Len() > 0 {
		if err := batch.Write(); err != nil {
			return fmt.Errorf("state: commit: %w", err)
		}
	}
	for _, evt := range pending {
		m.sink.Emit(evt)
	}
	return nil
}

// Discard drops every uncommitted write and event.
func (m *Manager) Discard() { m.reset() }

func (m *Manager) reset() {
	m.dirty = make(map[string]dirtyValue)
	m.journal = nil
	m.revisions = nil
	m.pending = nil
}

// Atomic runs fn as a single unit. When fn fails or panics every write and
// event it produced is reverted. Nested calls join the outermost one, which
// alone commits.
func (m *Manager) Atomic(fn func() error) (err error) {
	snap := m.Snapshot()
	m.depth++
	defer func() {
		m.depth--
		if r := recover(); r != nil {
			m.RevertToSnapshot(snap)
			panic(r)
		}
		if err != nil {
			m.RevertToSnapshot(snap)
			return
		}
		if m.depth == 0 {
			err = m.Commit()
		}
	}()
	return fn()
}

// SetSink configures where committed events are delivered.
func (m *Manager) SetSink(sink events.Emitter) {
	if sink == nil {
		m.sink = events.NoopEmitter{}
		return
	}
	m.sink = sink
}

// Emitter returns an emitter whose events are held until the enclosing atomic
// call commits. Outside an atomic call events go straight to the sink.
func (m *Manager) Emitter() events.Emitter {
	return journaledEmitter{m: m}
}

type journaledEmitter struct {
	m *Manager
}

func (e journaledEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	if e.m.depth == 0 {
		e.m.sink.Emit(evt)
		return
	}
	e.m.pending = append(e.m.pending, evt)
}
