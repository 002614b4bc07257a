// Package manager serves per-product trade sessions.
//
// The product map is published as an immutable snapshot; readers load it with a
// single atomic read and never block. Reloads build a new map and swap it in,
// serialized against each other by a writer lock.
package manager

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pcdogyu/tradesession/internal/loader"
	"github.com/pcdogyu/tradesession/internal/session"
)

// ErrProductNotFound is what boundaries report when a query comes back absent.
var ErrProductNotFound = errors.New("product not found")

// Source yields session records for a bulk (re)load.
type Source interface {
	Records(ctx context.Context) ([]loader.Record, error)
}

// Snapshot is one published generation of the product map.
type Snapshot struct {
	Generation string
	LoadedAt   time.Time
	sessions   map[string]*session.TradeSession
}

// Len returns the number of products.
func (s *Snapshot) Len() int { return len(s.sessions) }

type Manager struct {
	snap atomic.Pointer[Snapshot]
	// wmu serializes writers so merges never lose each other's products.
	wmu sync.Mutex
}

// New returns a manager with no products.
func New() *Manager {
	return NewFromMap(nil)
}

// NewFromMap takes ownership of sessions.
func NewFromMap(sessions map[string]*session.TradeSession) *Manager {
	m := &Manager{}
	m.publish(sessions)
	return m
}

// NewFromCSV loads CSV text, see loader.ReadCSV.
func NewFromCSV(r io.Reader) (*Manager, error) {
	sessions, err := loader.ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return NewFromMap(sessions), nil
}

// NewFromCSVContent loads CSV content held in memory.
func NewFromCSVContent(content string) (*Manager, error) {
	sessions, err := loader.ParseCSVContent(content)
	if err != nil {
		return nil, err
	}
	return NewFromMap(sessions), nil
}

// NewFromCSVFile loads a CSV file, enc names the fallback encoding.
func NewFromCSVFile(path, enc string) (*Manager, error) {
	sessions, err := loader.ReadCSVFile(path, enc)
	if err != nil {
		return nil, err
	}
	return NewFromMap(sessions), nil
}

// NewFromJSONMap loads product -> session column, as queried from a database.
func NewFromJSONMap(m map[string]string) (*Manager, error) {
	sessions, err := loader.FromJSONMap(m)
	if err != nil {
		return nil, err
	}
	return NewFromMap(sessions), nil
}

func (m *Manager) publish(sessions map[string]*session.TradeSession) *Snapshot {
	if sessions == nil {
		sessions = make(map[string]*session.TradeSession)
	}
	s := &Snapshot{
		Generation: uuid.NewString(),
		LoadedAt:   time.Now().UTC(),
		sessions:   sessions,
	}
	m.snap.Store(s)
	return s
}

// Snapshot returns the current generation.
func (m *Manager) Snapshot() *Snapshot {
	return m.snap.Load()
}

// Install publishes sessions. With merge the current products stay unless
// overwritten by sessions; without merge they are dropped.
func (m *Manager) Install(sessions map[string]*session.TradeSession, merge bool) *Snapshot {
	m.wmu.Lock()
	defer m.wmu.Unlock()

	if !merge {
		next := make(map[string]*session.TradeSession, len(sessions))
		for k, v := range sessions {
			next[k] = v
		}
		return m.publish(next)
	}
	cur := m.snap.Load().sessions
	next := make(map[string]*session.TradeSession, len(cur)+len(sessions))
	for k, v := range cur {
		next[k] = v
	}
	for k, v := range sessions {
		next[k] = v
	}
	return m.publish(next)
}

// Add sets one product's session, keeping the others.
func (m *Manager) Add(product string, ts *session.TradeSession) {
	m.Install(map[string]*session.TradeSession{product: ts.Clone()}, true)
}

// Reload parses CSV content. Nothing is installed if any row fails.
func (m *Manager) Reload(content string, merge bool) error {
	sessions, err := loader.ParseCSVContent(content)
	if err != nil {
		return err
	}
	m.Install(sessions, merge)
	return nil
}

// ReloadFile parses a CSV file. Nothing is installed if any row fails.
func (m *Manager) ReloadFile(path, enc string, merge bool) error {
	sessions, err := loader.ReadCSVFile(path, enc)
	if err != nil {
		return err
	}
	m.Install(sessions, merge)
	return nil
}

// ReloadJSONMap parses product -> session column. Nothing is installed if any entry fails.
func (m *Manager) ReloadJSONMap(js map[string]string, merge bool) error {
	sessions, err := loader.FromJSONMap(js)
	if err != nil {
		return err
	}
	m.Install(sessions, merge)
	return nil
}

// ReloadFrom fetches every record from src and installs them.
func (m *Manager) ReloadFrom(ctx context.Context, src Source, merge bool) (*Snapshot, error) {
	recs, err := src.Records(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := loader.Build(recs)
	if err != nil {
		return nil, err
	}
	return m.Install(sessions, merge), nil
}

func (m *Manager) lookup(product string) (*session.TradeSession, bool) {
	ts, ok := m.snap.Load().sessions[product]
	return ts, ok
}

// Has reports whether product is defined. Product codes are case-sensitive.
func (m *Manager) Has(product string) bool {
	_, ok := m.lookup(product)
	return ok
}

// Get returns an independent copy of product's session.
func (m *Manager) Get(product string) (*session.TradeSession, bool) {
	ts, ok := m.lookup(product)
	if !ok {
		return nil, false
	}
	return ts.Clone(), true
}

// Len returns the number of products.
func (m *Manager) Len() int {
	return m.snap.Load().Len()
}

// Products returns the product codes, sorted.
func (m *Manager) Products() []string {
	cur := m.snap.Load().sessions
	out := make([]string, 0, len(cur))
	for k := range cur {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Sessions returns copies of every session.
func (m *Manager) Sessions() map[string]*session.TradeSession {
	cur := m.snap.Load().sessions
	out := make(map[string]*session.TradeSession, len(cur))
	for k, v := range cur {
		out[k] = v.Clone()
	}
	return out
}

// DayBegin is usually 09:00/09:15/09:30, or 21:00 for night products.
func (m *Manager) DayBegin(product string) (session.TimeOfDay, bool) {
	ts, ok := m.lookup(product)
	if !ok {
		return session.TimeOfDay{}, false
	}
	return ts.DayBegin(), true
}

// DayEnd is 15:00 for commodities, 15:15 for bond futures.
func (m *Manager) DayEnd(product string) (session.TimeOfDay, bool) {
	ts, ok := m.lookup(product)
	if !ok {
		return session.TimeOfDay{}, false
	}
	return ts.DayEnd(), true
}

func (m *Manager) MorningBegin(product string) (session.TimeOfDay, bool) {
	ts, ok := m.lookup(product)
	if !ok {
		return session.TimeOfDay{}, false
	}
	return ts.MorningBegin(), true
}

// InSession answers (in session, product found).
func (m *Manager) InSession(product string, t session.TimeOfDay, includeBegin, includeEnd bool) (bool, bool) {
	ts, ok := m.lookup(product)
	if !ok {
		return false, false
	}
	return ts.InSession(t, includeBegin, includeEnd), true
}

// AnyInSession answers (range touches the session, product found).
func (m *Manager) AnyInSession(product string, start, end session.TimeOfDay, includeBeginEnd bool) (bool, bool) {
	ts, ok := m.lookup(product)
	if !ok {
		return false, false
	}
	return ts.AnyInSession(start, end, includeBeginEnd), true
}

// Lookup is Get with absence reported as ErrProductNotFound.
func (m *Manager) Lookup(product string) (*session.TradeSession, error) {
	ts, ok := m.Get(product)
	if !ok {
		return nil, errors.Wrap(ErrProductNotFound, product)
	}
	return ts, nil
}
