package repositories

import (
	"context"
	"slices"
	"strings"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/models"
)

// FacultyRepository provides access to the shared faculty database and the
// links between faculty records and clients.
type FacultyRepository interface {
	AddFacultyToDatabase(ctx context.Context, member models.FacultyMember, country, fieldCategory string) (string, error)
	AddManual(ctx context.Context, input *models.FacultyRecordInput) (string, error)
	UpsertFaculty(ctx context.Context, input *models.FacultyRecordInput, source models.FacultySource) (string, error)
	GetFaculty(ctx context.Context, id string) (*models.FacultyRecord, error)
	ListFaculty(ctx context.Context, filter models.FacultyFilter) []*models.FacultyRecord
	ListFacultyForClient(ctx context.Context, clientID string) ([]*models.FacultyRecord, error)
	UpdateFaculty(ctx context.Context, id string, patch *models.FacultyPatch) (*models.FacultyRecord, error)
	DeleteFaculty(ctx context.Context, id string) error

	Link(ctx context.Context, facultyID, clientID string) error
	Unlink(ctx context.Context, facultyID, clientID string) error
}

// ============================================================================
// Insert with dedup
// ============================================================================

// AddFacultyToDatabase saves a search result. See UpsertFaculty.
func (w *Workspace) AddFacultyToDatabase(ctx context.Context, member models.FacultyMember, country, fieldCategory string) (string, error) {
	return w.UpsertFaculty(ctx, &models.FacultyRecordInput{
		FacultyMember: member,
		Country:       country,
		FieldCategory: fieldCategory,
	}, models.FacultySourceSearch)
}

// AddManual saves a record entered through the manual form. See UpsertFaculty.
func (w *Workspace) AddManual(ctx context.Context, input *models.FacultyRecordInput) (string, error) {
	return w.UpsertFaculty(ctx, input, models.FacultySourceManual)
}

// UpsertFaculty inserts a faculty record, or merges into the record that has
// the same case-insensitive (name, university). Non-empty incoming fields win
// on a merge; id, addedAt and links are preserved. Classification fields are
// only filled on a merge when the existing record has none. Returns the id of
// the new or existing record.
func (w *Workspace) UpsertFaculty(ctx context.Context, input *models.FacultyRecordInput, source models.FacultySource) (string, error) {
	if input == nil || strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.University) == "" {
		return "", apperrors.ErrInvalidInput
	}
	if !source.IsValid() {
		return "", apperrors.ErrInvalidInput
	}

	var id string
	err := w.mutate(ctx, slotFaculty, func() error {
		now := w.now()

		if existing := w.findFacultyByKeyLocked(input.DedupKey()); existing != nil {
			mergeMember(&existing.FacultyMember, &input.FacultyMember)
			if existing.Country == "" {
				existing.Country = input.Country
			}
			if existing.FieldCategory == "" {
				existing.FieldCategory = input.FieldCategory
			}
			if input.Notes != "" {
				existing.Notes = input.Notes
			}
			existing.Source = source
			existing.UpdatedAt = now
			id = existing.ID
			return nil
		}

		rec := &models.FacultyRecord{
			ID:              w.newID(),
			FacultyMember:   input.FacultyMember,
			Country:         input.Country,
			FieldCategory:   input.FieldCategory,
			Source:          source,
			Notes:           input.Notes,
			LinkedClientIDs: []string{},
			AddedAt:         now,
			UpdatedAt:       now,
		}
		rec.Name = strings.TrimSpace(rec.Name)
		rec.University = strings.TrimSpace(rec.University)
		rec.ResearchAreas = slices.Clone(rec.ResearchAreas)
		w.faculty = append(w.faculty, rec)
		id = rec.ID
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// mergeMember copies every non-empty field of src onto dst.
func mergeMember(dst, src *models.FacultyMember) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Name, strings.TrimSpace(src.Name))
	set(&dst.University, strings.TrimSpace(src.University))
	set(&dst.Title, src.Title)
	set(&dst.Department, src.Department)
	if len(src.ResearchAreas) > 0 {
		dst.ResearchAreas = slices.Clone(src.ResearchAreas)
	}
	set(&dst.Email, src.Email)
	set(&dst.ProfileURL, src.ProfileURL)
	set(&dst.LabURL, src.LabURL)
	set(&dst.RecentActivity, src.RecentActivity)
	set(&dst.RecruitingStatus, src.RecruitingStatus)
	set(&dst.Location, src.Location)
	set(&dst.MatchReason, src.MatchReason)
	if src.MatchScore != 0 {
		dst.MatchScore = src.MatchScore
	}
}

// ============================================================================
// Read
// ============================================================================

// GetFaculty returns the faculty record with id.
func (w *Workspace) GetFaculty(_ context.Context, id string) (*models.FacultyRecord, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	f := w.findFacultyLocked(id)
	if f == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.Clone(), nil
}

// ListFaculty returns the records passing filter, in insertion order.
func (w *Workspace) ListFaculty(_ context.Context, filter models.FacultyFilter) []*models.FacultyRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*models.FacultyRecord, 0, len(w.faculty))
	for _, f := range w.faculty {
		if filter.Matches(f) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// ListFacultyForClient returns the records linked to clientID, in the order
// the client was linked to them.
func (w *Workspace) ListFacultyForClient(_ context.Context, clientID string) ([]*models.FacultyRecord, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c := w.findClientLocked(clientID)
	if c == nil {
		return nil, apperrors.ErrNotFound
	}
	out := make([]*models.FacultyRecord, 0, len(c.LinkedFacultyIDs))
	for _, fid := range c.LinkedFacultyIDs {
		if f := w.findFacultyLocked(fid); f != nil {
			out = append(out, f.Clone())
		}
	}
	return out, nil
}

// ============================================================================
// Update / delete
// ============================================================================

// UpdateFaculty applies a partial update. Renaming a record onto the dedup key
// of another record is a conflict.
func (w *Workspace) UpdateFaculty(ctx context.Context, id string, patch *models.FacultyPatch) (*models.FacultyRecord, error) {
	if patch != nil {
		if (patch.Name != nil && strings.TrimSpace(*patch.Name) == "") ||
			(patch.University != nil && strings.TrimSpace(*patch.University) == "") {
			return nil, apperrors.ErrInvalidInput
		}
	}

	var updated *models.FacultyRecord
	err := w.mutate(ctx, slotFaculty, func() error {
		f := w.findFacultyLocked(id)
		if f == nil {
			return apperrors.ErrNotFound
		}

		next := f.Clone()
		patch.Apply(next)
		if other := w.findFacultyByKeyLocked(next.DedupKey()); other != nil && other.ID != f.ID {
			return apperrors.ErrConflict
		}
		next.UpdatedAt = w.now()
		*f = *next
		updated = f.Clone()
		return nil
	})
	return updated, err
}

// DeleteFaculty removes the record and, in the same step, its id from every
// linked client.
func (w *Workspace) DeleteFaculty(ctx context.Context, id string) error {
	return w.mutate(ctx, slotFaculty|slotClients, func() error {
		i := slices.IndexFunc(w.faculty, func(f *models.FacultyRecord) bool { return f.ID == id })
		if i < 0 {
			return apperrors.ErrNotFound
		}
		w.faculty = slices.Delete(w.faculty, i, i+1)

		// Scan every client rather than trusting the record's own list.
		for _, c := range w.clients {
			c.LinkedFacultyIDs, _ = removeString(c.LinkedFacultyIDs, id)
		}
		return nil
	})
}

// ============================================================================
// Links
// ============================================================================

// Link records that facultyID was recommended to clientID. Both sides are
// updated together; linking twice is a no-op.
func (w *Workspace) Link(ctx context.Context, facultyID, clientID string) error {
	return w.mutate(ctx, slotFaculty|slotClients, func() error {
		f := w.findFacultyLocked(facultyID)
		c := w.findClientLocked(clientID)
		if f == nil || c == nil {
			return apperrors.ErrNotFound
		}

		changed := false
		if !f.HasLinkedClient(clientID) {
			f.LinkedClientIDs = append(f.LinkedClientIDs, clientID)
			changed = true
		}
		if !c.HasLinkedFaculty(facultyID) {
			c.LinkedFacultyIDs = append(c.LinkedFacultyIDs, facultyID)
			changed = true
		}
		if changed {
			f.UpdatedAt = w.now()
		}
		return nil
	})
}

// Unlink removes the link from both sides. Unlinking an unlinked pair is a no-op.
func (w *Workspace) Unlink(ctx context.Context, facultyID, clientID string) error {
	return w.mutate(ctx, slotFaculty|slotClients, func() error {
		f := w.findFacultyLocked(facultyID)
		c := w.findClientLocked(clientID)
		if f == nil || c == nil {
			return apperrors.ErrNotFound
		}

		var fromFaculty, fromClient bool
		f.LinkedClientIDs, fromFaculty = removeString(f.LinkedClientIDs, clientID)
		c.LinkedFacultyIDs, fromClient = removeString(c.LinkedFacultyIDs, facultyID)
		if fromFaculty || fromClient {
			f.UpdatedAt = w.now()
		}
		return nil
	})
}
