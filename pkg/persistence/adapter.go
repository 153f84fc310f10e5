package persistence

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

// Slot names, appended to the configured key prefix.
const (
	SlotActiveTab        = "activeTab"
	SlotClients          = "clients"
	SlotFaculty          = "faculty"
	SlotSelectedClientID = "selectedClientId"
)

// Adapter loads and saves the four workspace slots. Every read falls back to
// a default and every write failure is logged; neither is ever returned.
type Adapter struct {
	store  KVStore
	prefix string
	seed   bool
	logger *zap.Logger
	now    func() time.Time
}

// NewAdapter creates an Adapter over store. When seed is true a missing or
// unreadable client slot is replaced by the sample clients.
func NewAdapter(store KVStore, prefix string, seed bool, logger *zap.Logger) *Adapter {
	return &Adapter{
		store:  store,
		prefix: prefix,
		seed:   seed,
		logger: logger.Named("persistence"),
		now:    time.Now,
	}
}

// Key returns the storage key for slot.
func (a *Adapter) Key(slot string) string {
	if a.prefix == "" {
		return slot
	}
	return a.prefix + "." + slot
}

// Load reads all four slots.
func (a *Adapter) Load(ctx context.Context) *models.WorkspaceState {
	clients, seeded := a.loadClients(ctx)
	state := &models.WorkspaceState{
		ActiveTab: a.loadActiveTab(ctx),
		Clients:   clients,
		Faculty:   a.loadFaculty(ctx),
		Seeded:    seeded,
	}

	selected := a.loadSelectedClientID(ctx)
	if selected != "" {
		for _, c := range state.Clients {
			if c.ID == selected {
				state.SelectedClientID = selected
				break
			}
		}
		if state.SelectedClientID == "" {
			a.logger.Warn("Dropping selection of unknown client", zap.String("client_id", selected))
		}
	}
	return state
}

func (a *Adapter) loadActiveTab(ctx context.Context) models.ActiveTab {
	var tab models.ActiveTab
	if !a.read(ctx, SlotActiveTab, &tab) {
		return models.DefaultTab
	}
	if !tab.IsValid() {
		a.logger.Warn("Ignoring unknown active tab", zap.String("tab", string(tab)))
		return models.DefaultTab
	}
	return tab
}

// loadClients reports true when it fell back to the sample clients.
func (a *Adapter) loadClients(ctx context.Context) ([]*models.Client, bool) {
	var clients []*models.Client
	if a.read(ctx, SlotClients, &clients) && clients != nil {
		return normalizeClients(clients), false
	}
	if !a.seed {
		return []*models.Client{}, false
	}
	seeded, err := SeedClients(a.now())
	if err != nil {
		a.logger.Error("Failed to load seed clients", zap.Error(err))
		return []*models.Client{}, false
	}
	return seeded, true
}

func (a *Adapter) loadFaculty(ctx context.Context) []*models.FacultyRecord {
	var faculty []*models.FacultyRecord
	if !a.read(ctx, SlotFaculty, &faculty) || faculty == nil {
		return []*models.FacultyRecord{}
	}
	out := faculty[:0]
	for _, f := range faculty {
		if f == nil {
			continue
		}
		if f.LinkedClientIDs == nil {
			f.LinkedClientIDs = []string{}
		}
		out = append(out, f)
	}
	return out
}

func (a *Adapter) loadSelectedClientID(ctx context.Context) string {
	var id string
	if !a.read(ctx, SlotSelectedClientID, &id) {
		return ""
	}
	return id
}

// read fetches and decodes one slot. It returns false when the slot is
// missing, unreadable or malformed.
func (a *Adapter) read(ctx context.Context, slot string, dst any) bool {
	key := a.Key(slot)
	raw, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.logger.Error("Failed to read slot, using default", zap.String("key", key), zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		a.logger.Warn("Malformed slot, using default", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SaveActiveTab writes the active tab slot.
func (a *Adapter) SaveActiveTab(ctx context.Context, tab models.ActiveTab) {
	a.write(ctx, SlotActiveTab, tab)
}

// SaveClients writes the client collection slot.
func (a *Adapter) SaveClients(ctx context.Context, clients []*models.Client) {
	if clients == nil {
		clients = []*models.Client{}
	}
	a.write(ctx, SlotClients, clients)
}

// SaveFaculty writes the faculty collection slot.
func (a *Adapter) SaveFaculty(ctx context.Context, faculty []*models.FacultyRecord) {
	if faculty == nil {
		faculty = []*models.FacultyRecord{}
	}
	a.write(ctx, SlotFaculty, faculty)
}

// SaveSelectedClient writes the selected client slot. An empty id clears it.
func (a *Adapter) SaveSelectedClient(ctx context.Context, id string) {
	a.write(ctx, SlotSelectedClientID, id)
}

func (a *Adapter) write(ctx context.Context, slot string, v any) {
	key := a.Key(slot)
	raw, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("Failed to encode slot", zap.String("key", key), zap.Error(err))
		return
	}
	if err := a.store.Put(ctx, key, raw); err != nil {
		a.logger.Error("Failed to write slot", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the underlying store.
func (a *Adapter) Close() error {
	return a.store.Close()
}

// normalizeClients drops nil entries and replaces nil collections with empty
// ones so older or hand-edited slots load cleanly.
func normalizeClients(clients []*models.Client) []*models.Client {
	out := clients[:0]
	for _, c := range clients {
		if c == nil {
			continue
		}
		if c.Status == "" {
			c.Status = models.ClientStatusActive
		}
		if c.Educations == nil {
			c.Educations = []models.Education{}
		}
		if c.WorkHistory == nil {
			c.WorkHistory = []models.WorkEntry{}
		}
		if c.Awards == nil {
			c.Awards = []models.Award{}
		}
		if c.Contacts == nil {
			c.Contacts = []models.ContactRecord{}
		}
		if c.Documents == nil {
			c.Documents = []models.Document{}
		}
		if c.LinkedFacultyIDs == nil {
			c.LinkedFacultyIDs = []string{}
		}
		c.DocumentCount = len(c.Documents)
		out = append(out, c)
	}
	return out
}
