package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

func TestFacultyHandler_CreateAndList(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/faculty", models.FacultyRecordInput{
		FacultyMember: models.FacultyMember{Name: "Jane Doe", University: "ETH Zurich", ResearchAreas: []string{"control theory"}},
		Country:       "Switzerland",
		FieldCategory: "Engineering",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec1 := decodeData[models.FacultyRecord](t, rec)
	assert.Equal(t, models.FacultySourceManual, rec1.Source)

	rec = s.do(t, http.MethodPost, "/api/faculty", models.FacultyRecordInput{
		FacultyMember: models.FacultyMember{Name: "jane doe", University: "eth zurich", Email: "jdoe@ethz.ch"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, rec1.ID, decodeData[models.FacultyRecord](t, rec).ID, "same name and university merge")

	s.addFaculty(t, "Kenji Sato", "University of Tokyo", "Japan")

	all := decodeData[[]models.FacultyRecord](t, s.do(t, http.MethodGet, "/api/faculty", nil))
	assert.Len(t, all, 2)

	swiss := decodeData[[]models.FacultyRecord](t, s.do(t, http.MethodGet, "/api/faculty?country=switzerland", nil))
	require.Len(t, swiss, 1)
	assert.Equal(t, "jdoe@ethz.ch", swiss[0].Email)

	byQuery := decodeData[[]models.FacultyRecord](t, s.do(t, http.MethodGet, "/api/faculty?q=tokyo", nil))
	require.Len(t, byQuery, 1)
	assert.Equal(t, "Kenji Sato", byQuery[0].Name)
}

func TestFacultyHandler_PatchAndDelete(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.addFaculty(t, "Maria Rossi", "Politecnico di Milano", "Italy")
	client := s.createClient(t, "Sun Mei")

	rec := s.do(t, http.MethodPatch, "/api/faculty/"+id, map[string]string{"recruiting_status": "Recruiting PhD students"})
	assert.Equal(t, "Recruiting PhD students", decodeData[models.FacultyRecord](t, rec).RecruitingStatus)

	rec = s.do(t, http.MethodPost, "/api/faculty/"+id+"/links/"+client.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	linked := decodeData[[]models.FacultyRecord](t, s.do(t, http.MethodGet, "/api/faculty?client_id="+client.ID, nil))
	require.Len(t, linked, 1)

	rec = s.do(t, http.MethodDelete, "/api/faculty/"+id, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/faculty/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, err := s.workspace.Get(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Empty(t, c.LinkedFacultyIDs, "deleting a record removes its client links")
}

func TestFacultyHandler_Links(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.addFaculty(t, "Anna Berg", "KTH", "Sweden")
	client := s.createClient(t, "He Yu")
	path := "/api/faculty/" + id + "/links/" + client.ID

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, path, nil).Code)
	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, path, nil).Code, "linking twice is idempotent")

	rec, err := s.workspace.GetFaculty(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{client.ID}, rec.LinkedClientIDs)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, nil).Code)
	c, err := s.workspace.Get(context.Background(), client.ID)
	require.NoError(t, err)
	assert.Empty(t, c.LinkedFacultyIDs)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/faculty/"+id+"/links/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/faculty/missing/links/"+client.ID, nil).Code)
}

func TestFacultyHandler_Refresh(t *testing.T) {
	mock := respondWith(`{"name": "Someone Else", "university": "Elsewhere", "title": "Professor",
		"recruiting_status": "Not recruiting", "email": ""}`)
	s := newTestServer(t, mock)
	id, err := s.workspace.AddManual(context.Background(), &models.FacultyRecordInput{
		FacultyMember: models.FacultyMember{Name: "Tom Hill", University: "UCL", Title: "Associate Professor", Email: "t.hill@ucl.ac.uk"},
	})
	require.NoError(t, err)

	snap := s.waitTask(t, s.do(t, http.MethodPost, "/api/faculty/"+id+"/refresh", nil))
	require.Equal(t, workqueue.TaskStatusCompleted, snap.Status, snap.Error)

	rec, err := s.workspace.GetFaculty(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Tom Hill", rec.Name)
	assert.Equal(t, "UCL", rec.University)
	assert.Equal(t, "Professor", rec.Title)
	assert.Equal(t, "Not recruiting", rec.RecruitingStatus)
	assert.Equal(t, "t.hill@ucl.ac.uk", rec.Email, "empty refreshed values keep the old ones")

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/faculty/missing/refresh", nil).Code)
}

func TestFacultyHandler_Export(t *testing.T) {
	s := newTestServer(t, nil)
	s.addFaculty(t, "Lee \"Max\" Park", "KAIST", "South Korea")

	rec := s.do(t, http.MethodGet, "/api/faculty/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "faculty-database-")

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "\uFEFF\"University\""))
	assert.Contains(t, body, `"Lee ""Max"" Park"`)
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	assert.Len(t, lines, 2)
}
