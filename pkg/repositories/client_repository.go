package repositories

import (
	"context"
	"slices"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/models"
)

// ClientRepository provides access to client records and the documents they own.
// Returned values are copies; mutate through the repository.
type ClientRepository interface {
	Create(ctx context.Context, input *models.NewClientInput) (*models.Client, error)
	Get(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, status models.ClientStatus, query string) []*models.Client
	Update(ctx context.Context, client *models.Client) (*models.Client, error)
	Patch(ctx context.Context, id string, patch *models.ClientPatch) (*models.Client, error)
	SetStatus(ctx context.Context, id string, status models.ClientStatus) (*models.Client, error)

	AddEducation(ctx context.Context, clientID string, e models.Education) (string, error)
	AddWorkEntry(ctx context.Context, clientID string, e models.WorkEntry) (string, error)
	AddAward(ctx context.Context, clientID string, a models.Award) (string, error)
	AddContact(ctx context.Context, clientID string, c models.ContactRecord) (string, error)
	RemoveSubRecord(ctx context.Context, clientID string, kind models.SubRecordKind, subID string) error

	SaveDocument(ctx context.Context, clientID string, input *models.DocumentInput) (string, error)
	GetDocument(ctx context.Context, clientID, documentID string) (*models.Document, error)
	ListDocuments(ctx context.Context, clientID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, clientID, documentID string) error
}

// ============================================================================
// Clients
// ============================================================================

// Create adds a new active client. Advisor and contact default to their
// "unassigned" and "none" sentinels.
func (w *Workspace) Create(ctx context.Context, input *models.NewClientInput) (*models.Client, error) {
	if input == nil || strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	var created *models.Client
	err := w.mutate(ctx, slotClients, func() error {
		now := w.now()
		c := &models.Client{
			ID:                   w.newID(),
			Status:               models.ClientStatusActive,
			Name:                 strings.TrimSpace(input.Name),
			Advisor:              input.Advisor,
			GPA:                  input.GPA,
			Contact:              input.Contact,
			AcademicAchievements: input.AcademicAchievements,
			Extracurriculars:     input.Extracurriculars,
			Interests:            input.Interests,
			CareerAspirations:    input.CareerAspirations,
			Experiences:          input.Experiences,
			Challenges:           input.Challenges,
			Skills:               input.Skills,
			Growth:               input.Growth,
			AdditionalNotes:      input.AdditionalNotes,
			Educations:           slices.Clone(input.Educations),
			WorkHistory:          slices.Clone(input.WorkHistory),
			Awards:               slices.Clone(input.Awards),
			Contacts:             slices.Clone(input.Contacts),
			Documents:            []models.Document{},
			LinkedFacultyIDs:     []string{},
			SourceFileKey:        input.SourceFileKey,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if c.Advisor == "" {
			c.Advisor = models.AdvisorUnassigned
		}
		if c.Contact == "" {
			c.Contact = models.ContactNone
		}
		w.normalizeSubRecords(c)

		w.clients = append(w.clients, c)
		created = c.Clone()
		return nil
	})
	return created, err
}

// Get returns the client with id.
func (w *Workspace) Get(_ context.Context, id string) (*models.Client, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c := w.findClientLocked(id)
	if c == nil {
		return nil, apperrors.ErrNotFound
	}
	return c.Clone(), nil
}

// List returns clients in creation order. An empty status matches both
// statuses; query is a case-insensitive substring of the name.
func (w *Workspace) List(_ context.Context, status models.ClientStatus, query string) []*models.Client {
	w.mu.RLock()
	defer w.mu.RUnlock()

	query = strings.TrimSpace(query)
	out := make([]*models.Client, 0, len(w.clients))
	for _, c := range w.clients {
		if status != "" && c.Status != status {
			continue
		}
		if query != "" && !containsFold(c.Name, query) {
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// Update replaces the client with the same id wholesale. Identity, creation
// time and faculty links are kept from the stored record; links only change
// through Link and Unlink.
func (w *Workspace) Update(ctx context.Context, client *models.Client) (*models.Client, error) {
	if client == nil {
		return nil, apperrors.ErrInvalidInput
	}
	if client.Status != "" && !client.Status.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if strings.TrimSpace(client.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	var updated *models.Client
	err := w.mutate(ctx, slotClients, func() error {
		i := slices.IndexFunc(w.clients, func(c *models.Client) bool { return c.ID == client.ID })
		if i < 0 {
			return apperrors.ErrNotFound
		}
		existing := w.clients[i]

		next := client.Clone()
		next.CreatedAt = existing.CreatedAt
		next.LinkedFacultyIDs = slices.Clone(existing.LinkedFacultyIDs)
		if next.Status == "" {
			next.Status = existing.Status
		}
		next.UpdatedAt = w.now()
		w.normalizeSubRecords(next)

		w.clients[i] = next
		updated = next.Clone()
		return nil
	})
	return updated, err
}

// Patch applies a partial update to the client's scalar fields.
func (w *Workspace) Patch(ctx context.Context, id string, patch *models.ClientPatch) (*models.Client, error) {
	if patch != nil && patch.Status != nil && !patch.Status.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if patch != nil && patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperrors.ErrInvalidInput
	}

	var updated *models.Client
	err := w.mutate(ctx, slotClients, func() error {
		c := w.findClientLocked(id)
		if c == nil {
			return apperrors.ErrNotFound
		}
		if !patch.IsEmpty() {
			patch.Apply(c)
			c.UpdatedAt = w.now()
		}
		updated = c.Clone()
		return nil
	})
	return updated, err
}

// SetStatus archives or restores a client.
func (w *Workspace) SetStatus(ctx context.Context, id string, status models.ClientStatus) (*models.Client, error) {
	return w.Patch(ctx, id, &models.ClientPatch{Status: &status})
}

// ============================================================================
// Sub-records
// ============================================================================

// AddEducation appends an education entry and returns its id.
func (w *Workspace) AddEducation(ctx context.Context, clientID string, e models.Education) (string, error) {
	return w.addSubRecord(ctx, clientID, func(c *models.Client, id string) {
		e.ID = id
		c.Educations = append(c.Educations, e)
	})
}

// AddWorkEntry appends a work history entry and returns its id.
func (w *Workspace) AddWorkEntry(ctx context.Context, clientID string, e models.WorkEntry) (string, error) {
	return w.addSubRecord(ctx, clientID, func(c *models.Client, id string) {
		e.ID = id
		c.WorkHistory = append(c.WorkHistory, e)
	})
}

// AddAward appends an award and returns its id.
func (w *Workspace) AddAward(ctx context.Context, clientID string, a models.Award) (string, error) {
	return w.addSubRecord(ctx, clientID, func(c *models.Client, id string) {
		a.ID = id
		c.Awards = append(c.Awards, a)
	})
}

// AddContact appends a contact log entry and returns its id.
func (w *Workspace) AddContact(ctx context.Context, clientID string, r models.ContactRecord) (string, error) {
	return w.addSubRecord(ctx, clientID, func(c *models.Client, id string) {
		r.ID = id
		c.Contacts = append(c.Contacts, r)
	})
}

func (w *Workspace) addSubRecord(ctx context.Context, clientID string, add func(c *models.Client, id string)) (string, error) {
	var id string
	err := w.mutate(ctx, slotClients, func() error {
		c := w.findClientLocked(clientID)
		if c == nil {
			return apperrors.ErrNotFound
		}
		id = w.newID()
		add(c, id)
		c.UpdatedAt = w.now()
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveSubRecord deletes one entry from the named sub-collection.
func (w *Workspace) RemoveSubRecord(ctx context.Context, clientID string, kind models.SubRecordKind, subID string) error {
	if !kind.IsValid() {
		return apperrors.ErrInvalidInput
	}
	return w.mutate(ctx, slotClients, func() error {
		c := w.findClientLocked(clientID)
		if c == nil {
			return apperrors.ErrNotFound
		}
		var removed bool
		switch kind {
		case models.SubRecordEducation:
			c.Educations, removed = deleteByID(c.Educations, subID, func(e models.Education) string { return e.ID })
		case models.SubRecordWork:
			c.WorkHistory, removed = deleteByID(c.WorkHistory, subID, func(e models.WorkEntry) string { return e.ID })
		case models.SubRecordAward:
			c.Awards, removed = deleteByID(c.Awards, subID, func(a models.Award) string { return a.ID })
		case models.SubRecordContact:
			c.Contacts, removed = deleteByID(c.Contacts, subID, func(r models.ContactRecord) string { return r.ID })
		}
		if !removed {
			return apperrors.ErrNotFound
		}
		c.UpdatedAt = w.now()
		return nil
	})
}

func deleteByID[T any](list []T, id string, idOf func(T) string) ([]T, bool) {
	i := slices.IndexFunc(list, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

// normalizeSubRecords gives every entry a unique id and replaces nil collections.
func (w *Workspace) normalizeSubRecords(c *models.Client) {
	if c.Educations == nil {
		c.Educations = []models.Education{}
	}
	assignIDs(c.Educations, func(e *models.Education) *string { return &e.ID }, w.newID)
	if c.WorkHistory == nil {
		c.WorkHistory = []models.WorkEntry{}
	}
	assignIDs(c.WorkHistory, func(e *models.WorkEntry) *string { return &e.ID }, w.newID)
	if c.Awards == nil {
		c.Awards = []models.Award{}
	}
	assignIDs(c.Awards, func(a *models.Award) *string { return &a.ID }, w.newID)
	if c.Contacts == nil {
		c.Contacts = []models.ContactRecord{}
	}
	assignIDs(c.Contacts, func(r *models.ContactRecord) *string { return &r.ID }, w.newID)
	if c.Documents == nil {
		c.Documents = []models.Document{}
	}
	assignIDs(c.Documents, func(d *models.Document) *string { return &d.ID }, w.newID)
	if c.LinkedFacultyIDs == nil {
		c.LinkedFacultyIDs = []string{}
	}
	c.DocumentCount = len(c.Documents)
}

// assignIDs gives every entry without an id, and every entry repeating an
// earlier entry's id, a fresh one. The first occurrence keeps its id.
func assignIDs[T any](items []T, idOf func(*T) *string, newID func() string) {
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		id := idOf(&items[i])
		if _, dup := seen[*id]; *id == "" || dup {
			*id = newID()
		}
		seen[*id] = struct{}{}
	}
}

// ============================================================================
// Documents
// ============================================================================

// SaveDocument updates the client's document with input.ID in place, keeping
// its position and creation time, or appends a new document when input.ID is
// empty or unknown. It returns the resulting document id.
func (w *Workspace) SaveDocument(ctx context.Context, clientID string, input *models.DocumentInput) (string, error) {
	if input == nil {
		return "", apperrors.ErrInvalidInput
	}
	docType := input.Type
	if docType == "" {
		docType = models.DocumentTypeOther
	}
	if docType != models.DocumentTypeOther && !docType.IsGeneratable() {
		return "", apperrors.ErrInvalidInput
	}

	var docID string
	err := w.mutate(ctx, slotClients, func() error {
		c := w.findClientLocked(clientID)
		if c == nil {
			return apperrors.ErrNotFound
		}
		now := w.now()

		i := -1
		if input.ID != "" {
			i = slices.IndexFunc(c.Documents, func(d models.Document) bool { return d.ID == input.ID })
		}
		if i >= 0 {
			c.Documents[i].Title = input.Title
			c.Documents[i].Content = input.Content
			c.Documents[i].UpdatedAt = now
			docID = c.Documents[i].ID
		} else {
			title := input.Title
			if strings.TrimSpace(title) == "" {
				title = docType.Label()
			}
			docID = w.newID()
			c.Documents = append(c.Documents, models.Document{
				ID:        docID,
				Title:     title,
				Type:      docType,
				Content:   input.Content,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		c.DocumentCount = len(c.Documents)
		c.UpdatedAt = now
		return nil
	})
	if err != nil {
		return "", err
	}
	return docID, nil
}

// GetDocument returns one of the client's documents.
func (w *Workspace) GetDocument(_ context.Context, clientID, documentID string) (*models.Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c := w.findClientLocked(clientID)
	if c == nil {
		return nil, apperrors.ErrNotFound
	}
	for _, d := range c.Documents {
		if d.ID == documentID {
			doc := d
			return &doc, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ListDocuments returns the client's documents in order.
func (w *Workspace) ListDocuments(_ context.Context, clientID string) ([]models.Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c := w.findClientLocked(clientID)
	if c == nil {
		return nil, apperrors.ErrNotFound
	}
	return slices.Clone(c.Documents), nil
}

// DeleteDocument removes one of the client's documents.
func (w *Workspace) DeleteDocument(ctx context.Context, clientID, documentID string) error {
	return w.mutate(ctx, slotClients, func() error {
		c := w.findClientLocked(clientID)
		if c == nil {
			return apperrors.ErrNotFound
		}
		var removed bool
		c.Documents, removed = deleteByID(c.Documents, documentID, func(d models.Document) string { return d.ID })
		if !removed {
			return apperrors.ErrNotFound
		}
		c.DocumentCount = len(c.Documents)
		c.UpdatedAt = w.now()
		return nil
	})
}
