// Package repositories holds the consulting workspace: the client and faculty
// collections, their cross references and the documents each client owns.
package repositories

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/models"
)

// SlotStore loads and saves the four persisted workspace slots.
// Saves are best-effort and never report failure.
type SlotStore interface {
	Load(ctx context.Context) *models.WorkspaceState
	SaveActiveTab(ctx context.Context, tab models.ActiveTab)
	SaveClients(ctx context.Context, clients []*models.Client)
	SaveFaculty(ctx context.Context, faculty []*models.FacultyRecord)
	SaveSelectedClient(ctx context.Context, id string)
}

type slot uint8

const (
	slotActiveTab slot = 1 << iota
	slotClients
	slotFaculty
	slotSelection

	slotAll = slotActiveTab | slotClients | slotFaculty | slotSelection
)

// Workspace owns the client and faculty collections. A single lock covers
// both so link, unlink and cascade-delete are atomic to every reader.
//
// Each mutation snapshots the slots it touched while holding the lock and
// writes them after releasing it. Writes are serialized; a snapshot older
// than one already written for the same slot is dropped.
type Workspace struct {
	mu        sync.RWMutex
	clients   []*models.Client
	faculty   []*models.FacultyRecord
	selected  string
	activeTab models.ActiveTab
	seq       uint64

	writeMu sync.Mutex
	written map[slot]uint64

	store  SlotStore
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewWorkspace creates an empty workspace backed by store. Call Load before use.
func NewWorkspace(store SlotStore, logger *zap.Logger) *Workspace {
	return &Workspace{
		clients:   []*models.Client{},
		faculty:   []*models.FacultyRecord{},
		activeTab: models.DefaultTab,
		written:   make(map[slot]uint64),
		store:     store,
		logger:    logger.Named("workspace"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

var (
	_ ClientRepository  = (*Workspace)(nil)
	_ FacultyRepository = (*Workspace)(nil)
)

// ============================================================================
// Lifecycle
// ============================================================================

// Load replaces the in-memory state with what the store holds.
func (w *Workspace) Load(ctx context.Context) {
	state := w.store.Load(ctx)

	w.mu.Lock()
	w.activeTab = state.ActiveTab
	w.clients = state.Clients
	w.faculty = state.Faculty
	w.selected = state.SelectedClientID
	repaired := w.reconcileLinksLocked()
	var slots slot
	if repaired > 0 {
		slots |= slotClients | slotFaculty
	}
	// Sample clients get fresh ids on every load; write them so a later
	// selection refers to ids that survive a restart.
	if state.Seeded {
		slots |= slotClients
	}
	var snap *snapshot
	if slots != 0 {
		snap = w.snapshotLocked(slots)
	}
	w.mu.Unlock()

	w.logger.Info("Workspace loaded",
		zap.Int("clients", len(state.Clients)),
		zap.Int("faculty", len(state.Faculty)),
		zap.String("active_tab", string(state.ActiveTab)))

	if repaired > 0 {
		w.logger.Warn("Repaired inconsistent client/faculty links", zap.Int("repaired", repaired))
	}
	if snap != nil {
		w.persist(ctx, snap)
	}
}

// Flush writes every slot.
func (w *Workspace) Flush(ctx context.Context) {
	w.mu.RLock()
	snap := w.snapshotLocked(slotAll)
	w.mu.RUnlock()
	w.persist(ctx, snap)
}

// reconcileLinksLocked drops references to unknown ids and restores link
// symmetry in loaded data. Returns the number of changes made.
func (w *Workspace) reconcileLinksLocked() int {
	changes := 0
	clientByID := make(map[string]*models.Client, len(w.clients))
	for _, c := range w.clients {
		clientByID[c.ID] = c
	}
	facultyByID := make(map[string]*models.FacultyRecord, len(w.faculty))
	for _, f := range w.faculty {
		facultyByID[f.ID] = f
	}

	for _, c := range w.clients {
		kept := c.LinkedFacultyIDs[:0]
		for _, fid := range c.LinkedFacultyIDs {
			f, ok := facultyByID[fid]
			if !ok || slices.Contains(kept, fid) {
				changes++
				continue
			}
			kept = append(kept, fid)
			if !f.HasLinkedClient(c.ID) {
				f.LinkedClientIDs = append(f.LinkedClientIDs, c.ID)
				changes++
			}
		}
		c.LinkedFacultyIDs = kept
	}

	for _, f := range w.faculty {
		kept := f.LinkedClientIDs[:0]
		for _, cid := range f.LinkedClientIDs {
			c, ok := clientByID[cid]
			if !ok || slices.Contains(kept, cid) {
				changes++
				continue
			}
			kept = append(kept, cid)
			if !c.HasLinkedFaculty(f.ID) {
				c.LinkedFacultyIDs = append(c.LinkedFacultyIDs, f.ID)
				changes++
			}
		}
		f.LinkedClientIDs = kept
	}
	return changes
}

// ============================================================================
// Persistence plumbing
// ============================================================================

type snapshot struct {
	seq       uint64
	slots     slot
	activeTab models.ActiveTab
	clients   []*models.Client
	faculty   []*models.FacultyRecord
	selected  string
}

func (w *Workspace) snapshotLocked(slots slot) *snapshot {
	w.seq++
	snap := &snapshot{seq: w.seq, slots: slots}
	if slots&slotActiveTab != 0 {
		snap.activeTab = w.activeTab
	}
	if slots&slotClients != 0 {
		snap.clients = cloneClients(w.clients)
	}
	if slots&slotFaculty != 0 {
		snap.faculty = cloneFaculty(w.faculty)
	}
	if slots&slotSelection != 0 {
		snap.selected = w.selected
	}
	return snap
}

func (w *Workspace) persist(ctx context.Context, snap *snapshot) {
	// A cancelled request must not abandon a write of state already applied in memory.
	ctx = context.WithoutCancel(ctx)

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	for _, s := range []slot{slotActiveTab, slotClients, slotFaculty, slotSelection} {
		if snap.slots&s == 0 || w.written[s] > snap.seq {
			continue
		}
		switch s {
		case slotActiveTab:
			w.store.SaveActiveTab(ctx, snap.activeTab)
		case slotClients:
			w.store.SaveClients(ctx, snap.clients)
		case slotFaculty:
			w.store.SaveFaculty(ctx, snap.faculty)
		case slotSelection:
			w.store.SaveSelectedClient(ctx, snap.selected)
		}
		w.written[s] = snap.seq
	}
}

// mutate runs fn under the write lock and, when it succeeds, persists the
// given slots after the lock is released.
func (w *Workspace) mutate(ctx context.Context, slots slot, fn func() error) error {
	w.mu.Lock()
	if err := fn(); err != nil {
		w.mu.Unlock()
		return err
	}
	snap := w.snapshotLocked(slots)
	w.mu.Unlock()

	w.persist(ctx, snap)
	return nil
}

// ============================================================================
// Active tab and selection
// ============================================================================

// ActiveTab returns the persisted top-level view.
func (w *Workspace) ActiveTab() models.ActiveTab {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.activeTab
}

// SetActiveTab records the top-level view.
func (w *Workspace) SetActiveTab(ctx context.Context, tab models.ActiveTab) error {
	if !tab.IsValid() {
		return apperrors.ErrInvalidInput
	}
	return w.mutate(ctx, slotActiveTab, func() error {
		w.activeTab = tab
		return nil
	})
}

// Select marks clientID as the client being worked on.
func (w *Workspace) Select(ctx context.Context, clientID string) error {
	return w.mutate(ctx, slotSelection, func() error {
		if w.findClientLocked(clientID) == nil {
			return apperrors.ErrNotFound
		}
		w.selected = clientID
		return nil
	})
}

// ClearSelection removes the current selection.
func (w *Workspace) ClearSelection(ctx context.Context) {
	_ = w.mutate(ctx, slotSelection, func() error {
		w.selected = ""
		return nil
	})
}

// SelectedClientID returns the selected client id, or "" when none.
func (w *Workspace) SelectedClientID() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.selected
}

// Selected returns a copy of the selected client.
func (w *Workspace) Selected() (*models.Client, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c := w.findClientLocked(w.selected)
	if c == nil {
		return nil, false
	}
	return c.Clone(), true
}

// ============================================================================
// Helpers
// ============================================================================

func (w *Workspace) findClientLocked(id string) *models.Client {
	if id == "" {
		return nil
	}
	for _, c := range w.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (w *Workspace) findFacultyLocked(id string) *models.FacultyRecord {
	if id == "" {
		return nil
	}
	for _, f := range w.faculty {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (w *Workspace) findFacultyByKeyLocked(key models.DedupKey) *models.FacultyRecord {
	for _, f := range w.faculty {
		if f.DedupKey() == key {
			return f
		}
	}
	return nil
}

func cloneClients(in []*models.Client) []*models.Client {
	out := make([]*models.Client, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneFaculty(in []*models.FacultyRecord) []*models.FacultyRecord {
	out := make([]*models.FacultyRecord, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}

func removeString(list []string, v string) ([]string, bool) {
	i := slices.Index(list, v)
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
