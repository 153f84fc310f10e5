package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/models"
)

func TestFacultyRepository_AddFacultyToDatabase_New(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)

	id, err := w.AddFacultyToDatabase(ctx, models.FacultyMember{
		Name: "Alice", University: "MIT", Title: "Assistant Professor", ResearchAreas: []string{"NLP"},
	}, "USA", "CS")
	require.NoError(t, err)

	f, err := w.GetFaculty(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "USA", f.Country)
	assert.Equal(t, "CS", f.FieldCategory)
	assert.Equal(t, models.FacultySourceSearch, f.Source)
	assert.Empty(t, f.LinkedClientIDs)
	assert.NotNil(t, f.LinkedClientIDs)
	assert.Equal(t, f.AddedAt, f.UpdatedAt)
}

func TestFacultyRepository_Dedup_SecondInsertUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)

	id1, err := w.AddFacultyToDatabase(ctx, models.FacultyMember{
		Name: "Alice", University: "MIT", Title: "Assistant Professor", Email: "alice@mit.edu",
	}, "USA", "CS")
	require.NoError(t, err)
	first, err := w.GetFaculty(ctx, id1)
	require.NoError(t, err)

	id2, err := w.AddFacultyToDatabase(ctx, models.FacultyMember{
		Name: "Alice", University: "MIT", Title: "Associate Professor", Department: "EECS",
	}, "Canada", "EE")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	all := w.ListFaculty(ctx, models.FacultyFilter{})
	require.Len(t, all, 1)

	f := all[0]
	assert.Equal(t, "Associate Professor", f.Title)
	assert.Equal(t, "EECS", f.Department)
	assert.Equal(t, "alice@mit.edu", f.Email, "fields absent from the new result are kept")
	assert.Equal(t, "USA", f.Country, "existing classification is kept")
	assert.Equal(t, "CS", f.FieldCategory)
	assert.Equal(t, first.AddedAt, f.AddedAt)
	assert.True(t, f.UpdatedAt.After(first.UpdatedAt))
}

func TestFacultyRepository_Dedup_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)

	id1 := mustAddFaculty(t, w, "Alice Smith", "Stanford University")
	id2, err := w.AddFacultyToDatabase(ctx, models.FacultyMember{Name: "  ALICE smith", University: "stanford university "}, "", "")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, w.ListFaculty(ctx, models.FacultyFilter{}), 1)

	// Same name at another university is a different person.
	id3 := mustAddFaculty(t, w, "Alice Smith", "UC Berkeley")
	assert.NotEqual(t, id1, id3)
}

func TestFacultyRepository_Dedup_PreservesLinks(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)
	c := mustCreateClient(t, w, "Linked")
	id := mustAddFaculty(t, w, "Alice", "MIT")
	require.NoError(t, w.Link(ctx, id, c.ID))

	again := mustAddFaculty(t, w, "alice", "mit")
	assert.Equal(t, id, again)

	f, err := w.GetFaculty(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID}, f.LinkedClientIDs)
	assertSymmetric(t, w)
}

func TestFacultyRepository_AddManual(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)

	id, err := w.AddManual(ctx, &models.FacultyRecordInput{
		FacultyMember: models.FacultyMember{Name: "Bob", University: "Oxford"},
		Country:       "UK",
		Notes:         "Met at conference",
	})
	require.NoError(t, err)

	f, err := w.GetFaculty(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.FacultySourceManual, f.Source)
	assert.Equal(t, "Met at conference", f.Notes)

	// A later search hit for the same person merges and marks the source.
	again := mustAddFaculty(t, w, "BOB", "oxford")
	assert.Equal(t, id, again)
	f, err = w.GetFaculty(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.FacultySourceSearch, f.Source)
	assert.Equal(t, "UK", f.Country)

	_, err = w.AddManual(ctx, &models.FacultyRecordInput{FacultyMember: models.FacultyMember{Name: "No University"}})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFacultyRepository_UpdateFaculty(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)
	id := mustAddFaculty(t, w, "Alice", "MIT")
	other := mustAddFaculty(t, w, "Bob", "MIT")
	before, err := w.GetFaculty(ctx, id)
	require.NoError(t, err)

	title := "Professor"
	areas := []string{"Vision", "Robotics"}
	updated, err := w.UpdateFaculty(ctx, id, &models.FacultyPatch{Title: &title, ResearchAreas: &areas})
	require.NoError(t, err)
	assert.Equal(t, "Professor", updated.Title)
	assert.Equal(t, areas, updated.ResearchAreas)
	assert.True(t, updated.UpdatedAt.After(before.UpdatedAt))
	assert.Equal(t, before.AddedAt, updated.AddedAt)

	bob := "bob"
	_, err = w.UpdateFaculty(ctx, id, &models.FacultyPatch{Name: &bob})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	unchanged, err := w.GetFaculty(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice", unchanged.Name)

	_, err = w.UpdateFaculty(ctx, "missing", &models.FacultyPatch{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = w.GetFaculty(ctx, other)
	require.NoError(t, err)
}

func TestFacultyRepository_ListFaculty_Filters(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)
	c := mustCreateClient(t, w, "Filter")

	_, err := w.AddFacultyToDatabase(ctx, models.FacultyMember{Name: "A", University: "MIT", ResearchAreas: []string{"Quantum computing"}}, "USA", "Physics")
	require.NoError(t, err)
	b, err := w.AddFacultyToDatabase(ctx, models.FacultyMember{Name: "B", University: "ETH Zurich"}, "Switzerland", "CS")
	require.NoError(t, err)
	_, err = w.AddFacultyToDatabase(ctx, models.FacultyMember{Name: "C", University: "CMU"}, "USA", "CS")
	require.NoError(t, err)
	require.NoError(t, w.Link(ctx, b, c.ID))

	assert.Len(t, w.ListFaculty(ctx, models.FacultyFilter{Country: "usa"}), 2)
	assert.Len(t, w.ListFaculty(ctx, models.FacultyFilter{FieldCategory: "CS"}), 2)
	assert.Len(t, w.ListFaculty(ctx, models.FacultyFilter{Country: "USA", FieldCategory: "CS"}), 1)
	assert.Len(t, w.ListFaculty(ctx, models.FacultyFilter{Query: "quantum"}), 1)

	linked := w.ListFaculty(ctx, models.FacultyFilter{ClientID: c.ID})
	require.Len(t, linked, 1)
	assert.Equal(t, b, linked[0].ID)

	forClient, err := w.ListFacultyForClient(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, forClient, 1)
	assert.Equal(t, b, forClient[0].ID)

	_, err = w.ListFacultyForClient(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFacultyRepository_LinkSymmetry(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)
	c1 := mustCreateClient(t, w, "One")
	c2 := mustCreateClient(t, w, "Two")
	f1 := mustAddFaculty(t, w, "Alice", "MIT")
	f2 := mustAddFaculty(t, w, "Bob", "CMU")

	ops := []struct {
		link     bool
		fid, cid string
	}{
		{true, f1, c1.ID},
		{true, f1, c1.ID},
		{true, f2, c1.ID},
		{true, f1, c2.ID},
		{false, f1, c1.ID},
		{false, f1, c1.ID},
		{true, f1, c1.ID},
		{false, f2, c2.ID},
		{false, f2, c1.ID},
	}
	for _, op := range ops {
		var err error
		if op.link {
			err = w.Link(ctx, op.fid, op.cid)
		} else {
			err = w.Unlink(ctx, op.fid, op.cid)
		}
		require.NoError(t, err)
		assertSymmetric(t, w)
	}

	got1, err := w.Get(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f1}, got1.LinkedFacultyIDs)
	got2, err := w.Get(ctx, c2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f1}, got2.LinkedFacultyIDs)
}

func TestFacultyRepository_LinkThenUnlink_RestoresState(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)
	c := mustCreateClient(t, w, "C")
	f := mustAddFaculty(t, w, "F", "U")

	require.NoError(t, w.Link(ctx, f, c.ID))
	require.NoError(t, w.Unlink(ctx, f, c.ID))

	client, err := w.Get(ctx, c.ID)
	require.NoError(t, err)
	faculty, err := w.GetFaculty(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, client.LinkedFacultyIDs)
	assert.Empty(t, faculty.LinkedClientIDs)
}

func TestFacultyRepository_Link_RequiresBothSides(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWorkspace(t)
	c := mustCreateClient(t, w, "C")
	f := mustAddFaculty(t, w, "F", "U")

	assert.ErrorIs(t, w.Link(ctx, "missing", c.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, w.Link(ctx, f, "missing"), apperrors.ErrNotFound)
	assert.ErrorIs(t, w.Unlink(ctx, f, "missing"), apperrors.ErrNotFound)

	faculty, err := w.GetFaculty(ctx, f)
	require.NoError(t, err)
	assert.Empty(t, faculty.LinkedClientIDs, "failed link must not half-apply")
}

func TestFacultyRepository_Delete_Cascades(t *testing.T) {
	ctx := context.Background()
	w, adapter := newTestWorkspace(t)
	c1 := mustCreateClient(t, w, "One")
	c2 := mustCreateClient(t, w, "Two")
	f := mustAddFaculty(t, w, "Alice", "MIT")
	keep := mustAddFaculty(t, w, "Bob", "CMU")
	require.NoError(t, w.Link(ctx, f, c1.ID))
	require.NoError(t, w.Link(ctx, f, c2.ID))
	require.NoError(t, w.Link(ctx, keep, c1.ID))

	require.NoError(t, w.DeleteFaculty(ctx, f))

	_, err := w.GetFaculty(ctx, f)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got1, err := w.Get(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, got1.LinkedFacultyIDs)
	got2, err := w.Get(ctx, c2.ID)
	require.NoError(t, err)
	assert.Empty(t, got2.LinkedFacultyIDs)
	assertSymmetric(t, w)

	// Both slots were written by the same operation.
	state := adapter.Load(ctx)
	assert.Len(t, state.Faculty, 1)
	for _, c := range state.Clients {
		assert.NotContains(t, c.LinkedFacultyIDs, f)
	}

	assert.ErrorIs(t, w.DeleteFaculty(ctx, f), apperrors.ErrNotFound)
}
