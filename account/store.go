package account

import (
	"encoding/json"
	"sync"

	"github.com/golang/glog"
)

// MaxSessions is the number of accounts that may be logged in at once.
// Inserting one more evicts the oldest entry.
const MaxSessions = 3

// Backend persists the session record as one opaque blob.
// Load returns nil data when no record exists yet.
type Backend interface {
	Load() ([]byte, error)
	Save([]byte) error
}

// Store is the process wide registry of authenticated sessions.
// It is the only shared mutable state of the client engine: every
// reader and writer goes through its methods, and every mutation
// rewrites the durable record before returning.
//
// Operations are total: persistence failures are logged, never
// returned, so the in-memory sequence stays authoritative.
type Store struct {
	sync.RWMutex

	backend  Backend
	sessions []Session
	activeID int64 // identity id, 0 means none
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load reads the durable record. A missing or corrupt record loads as
// an empty sequence. The first entry, if any, becomes active unless
// the record names a still-present active id.
func (s *Store) Load() {
	s.Lock()
	defer s.Unlock()

	s.sessions = nil
	s.activeID = 0

	data, err := s.backend.Load()
	if err != nil {
		glog.Errorf("account: load record error: %v", err)
		return
	}
	if len(data) == 0 {
		return
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		glog.Errorf("account: corrupt record, starting empty: %v", err)
		return
	}

	if len(rec.Sessions) > MaxSessions {
		rec.Sessions = rec.Sessions[:MaxSessions]
	}
	s.sessions = rec.Sessions

	if s.indexOfLocked(rec.ActiveID) >= 0 {
		s.activeID = rec.ActiveID
	} else if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].Identity.ID
	}
}

// Upsert inserts the session at the front and makes it active. An
// existing session with the same identity id is replaced, the sequence
// never grows beyond MaxSessions: the tail is dropped.
func (s *Store) Upsert(sess Session) {
	s.Lock()
	defer s.Unlock()

	if i := s.indexOfLocked(sess.Identity.ID); i >= 0 {
		s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	}
	s.sessions = append([]Session{sess}, s.sessions...)
	if len(s.sessions) > MaxSessions {
		evicted := s.sessions[MaxSessions:]
		s.sessions = s.sessions[:MaxSessions]
		for _, e := range evicted {
			glog.Infof("account: evicted oldest session, identity %d", e.Identity.ID)
		}
	}
	s.activeID = sess.Identity.ID
	s.persistLocked()
}

// Remove drops the session with the given identity id. When it was the
// active one, the new first entry becomes active, or none remain.
func (s *Store) Remove(identityID int64) {
	s.Lock()
	defer s.Unlock()

	i := s.indexOfLocked(identityID)
	if i < 0 {
		return
	}
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	if s.activeID == identityID {
		s.activeID = 0
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].Identity.ID
		}
		glog.Infof("account: removed active session %d, now active: %d", identityID, s.activeID)
	}
	s.persistLocked()
}

// RemoveActive drops the active session in one step and activates the
// new first entry, if any. Returns the removed identity id, 0 when no
// session was active.
func (s *Store) RemoveActive() int64 {
	s.Lock()
	defer s.Unlock()

	i := s.indexOfLocked(s.activeID)
	if i < 0 {
		return 0
	}
	removed := s.activeID
	s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
	s.activeID = 0
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].Identity.ID
	}
	glog.Infof("account: removed active session %d, now active: %d", removed, s.activeID)
	s.persistLocked()
	return removed
}

// RemoveAll clears the registry.
func (s *Store) RemoveAll() {
	s.Lock()
	defer s.Unlock()
	s.sessions = nil
	s.activeID = 0
	s.persistLocked()
}

// SetActive switches the active session. No-op unless the identity id
// is present in the sequence.
func (s *Store) SetActive(identityID int64) {
	s.Lock()
	defer s.Unlock()
	if s.indexOfLocked(identityID) < 0 {
		return
	}
	s.activeID = identityID
	s.persistLocked()
}

// UpdateIdentity patches the stored identity in place, keeping the
// session's position and token. No-op when the identity is not held.
func (s *Store) UpdateIdentity(id Identity) {
	s.Lock()
	defer s.Unlock()
	i := s.indexOfLocked(id.ID)
	if i < 0 {
		return
	}
	s.sessions[i].Identity = id
	s.persistLocked()
}

// List returns a copy of the sequence, most recently activated first.
func (s *Store) List() []Session {
	s.RLock()
	defer s.RUnlock()
	out := make([]Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Active returns the active session, if any.
func (s *Store) Active() (Session, bool) {
	s.RLock()
	defer s.RUnlock()
	if i := s.indexOfLocked(s.activeID); i >= 0 {
		return s.sessions[i], true
	}
	return Session{}, false
}

// ActiveID returns the active identity id, 0 when none.
func (s *Store) ActiveID() int64 {
	s.RLock()
	defer s.RUnlock()
	return s.activeID
}

// ActiveToken returns the active session's bearer token, "" when none.
func (s *Store) ActiveToken() string {
	s.RLock()
	defer s.RUnlock()
	if i := s.indexOfLocked(s.activeID); i >= 0 {
		return s.sessions[i].Token
	}
	return ""
}

func (s *Store) indexOfLocked(identityID int64) int {
	if identityID == 0 {
		return -1
	}
	for i, sess := range s.sessions {
		if sess.Identity.ID == identityID {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	data, err := json.Marshal(&record{ActiveID: s.activeID, Sessions: s.sessions})
	if err != nil {
		glog.Errorf("account: marshal record error: %v", err)
		return
	}
	if err := s.backend.Save(data); err != nil {
		glog.Errorf("account: save record error: %v", err)
	}
}
