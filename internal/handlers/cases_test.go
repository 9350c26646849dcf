package handlers_test

import (
	"net/http"
	"testing"

	"github.com/spynet-dev/spynet/db"
	"github.com/spynet-dev/spynet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCaseScenario(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")

	created := createCase(t, r, manager.Token, map[string]interface{}{
		"title":    "Missing Person",
		"details":  "Last seen downtown",
		"location": "123 Main St",
	})

	assert.Equal(t, "Missing Person", created.Title)
	assert.Equal(t, "open", created.Status)
	assert.Nil(t, created.DetectiveID)
	require.NotNil(t, created.ManagerID)
	assert.Equal(t, manager.ID, *created.ManagerID)
	assert.True(t, created.UpdatedAt.Equal(created.CreatedAt))

	// Round-trip: reading it back returns the same record.
	w := doRequest(r, http.MethodGet, "/api/cases/"+created.ID, nil, manager.Token)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodeJSON[casePayload](t, w)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Title, fetched.Title)
	assert.Equal(t, created.Details, fetched.Details)
	assert.Equal(t, created.Location, fetched.Location)
	assert.Equal(t, created.Status, fetched.Status)
	assert.Nil(t, fetched.DetectiveID)
	assert.True(t, fetched.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, fetched.UpdatedAt.Equal(created.UpdatedAt))
}

func TestCreateCaseValidation(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")
	detective := signup(t, r, "D", "d@spynet.test", "detective")

	// Missing required fields
	w := doRequest(r, http.MethodPost, "/api/cases", map[string]interface{}{
		"title": "No details",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown status
	w = doRequest(r, http.MethodPost, "/api/cases", map[string]interface{}{
		"title":    "T",
		"details":  "D",
		"location": "L",
		"status":   "solved",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown detective
	w = doRequest(r, http.MethodPost, "/api/cases", map[string]interface{}{
		"title":        "T",
		"details":      "D",
		"location":     "L",
		"detective_id": "00000000-0000-0000-0000-000000000000",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Detectives cannot create cases
	w = doRequest(r, http.MethodPost, "/api/cases", map[string]interface{}{
		"title":    "T",
		"details":  "D",
		"location": "L",
	}, detective.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Assigning a real detective at creation works
	created := createCase(t, r, manager.Token, map[string]interface{}{
		"title":        "T",
		"details":      "D",
		"location":     "L",
		"status":       "in_progress",
		"detective_id": detective.ID,
	})
	require.NotNil(t, created.DetectiveID)
	assert.Equal(t, detective.ID, *created.DetectiveID)
	assert.Equal(t, "in_progress", created.Status)
}

func TestCaseVisibility(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")
	detective := signup(t, r, "D", "d@spynet.test", "detective")
	other := signup(t, r, "D2", "d2@spynet.test", "detective")

	assigned := createCase(t, r, manager.Token, map[string]interface{}{
		"title":        "Assigned",
		"details":      "...",
		"location":     "HQ",
		"detective_id": detective.ID,
	})
	unassigned := createCase(t, r, manager.Token, map[string]interface{}{
		"title":    "Unassigned",
		"details":  "...",
		"location": "HQ",
	})

	// The assigned detective sees the case.
	w := doRequest(r, http.MethodGet, "/api/cases/"+assigned.ID, nil, detective.Token)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decodeJSON[casePayload](t, w)
	assert.Equal(t, assigned.ID, fetched.ID)

	// Another detective gets a 404, not a 403.
	w = doRequest(r, http.MethodGet, "/api/cases/"+assigned.ID, nil, other.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Unassigned cases are invisible to detectives too.
	w = doRequest(r, http.MethodGet, "/api/cases/"+unassigned.ID, nil, detective.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Managers see everything.
	w = doRequest(r, http.MethodGet, "/api/cases/"+unassigned.ID, nil, manager.Token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListCasesScoping(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")
	detective := signup(t, r, "D", "d@spynet.test", "detective")
	other := signup(t, r, "D2", "d2@spynet.test", "detective")

	createCase(t, r, manager.Token, map[string]interface{}{
		"title": "C1", "details": "...", "location": "HQ",
		"detective_id": detective.ID,
	})
	createCase(t, r, manager.Token, map[string]interface{}{
		"title": "C2", "details": "...", "location": "HQ",
		"detective_id": detective.ID, "status": "closed",
	})
	createCase(t, r, manager.Token, map[string]interface{}{
		"title": "C3", "details": "...", "location": "HQ",
		"detective_id": other.ID,
	})
	createCase(t, r, manager.Token, map[string]interface{}{
		"title": "C4", "details": "...", "location": "HQ",
	})

	// Manager with no filter sees the full case set, in creation order.
	w := doRequest(r, http.MethodGet, "/api/cases", nil, manager.Token)
	require.Equal(t, http.StatusOK, w.Code)
	all := decodeJSON[[]casePayload](t, w)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"C1", "C2", "C3", "C4"}, titles(all))

	// Detective sees exactly their own cases.
	w = doRequest(r, http.MethodGet, "/api/cases", nil, detective.Token)
	require.Equal(t, http.StatusOK, w.Code)
	own := decodeJSON[[]casePayload](t, w)
	assert.Equal(t, []string{"C1", "C2"}, titles(own))

	// Filters narrow the scope but never widen it.
	w = doRequest(r, http.MethodGet, "/api/cases?status=closed", nil, detective.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"C2"}, titles(decodeJSON[[]casePayload](t, w)))

	w = doRequest(r, http.MethodGet, "/api/cases?detective_id="+other.ID, nil, detective.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeJSON[[]casePayload](t, w))

	w = doRequest(r, http.MethodGet, "/api/cases?detective_id="+other.ID, nil, manager.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"C3"}, titles(decodeJSON[[]casePayload](t, w)))

	w = doRequest(r, http.MethodGet, "/api/cases?status=burned", nil, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func titles(cases []casePayload) []string {
	out := make([]string, 0, len(cases))
	for _, c := range cases {
		out = append(out, c.Title)
	}
	return out
}

func TestDetectiveUpdateGate(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")
	detective := signup(t, r, "D", "d@spynet.test", "detective")
	other := signup(t, r, "D2", "d2@spynet.test", "detective")

	created := createCase(t, r, manager.Token, map[string]interface{}{
		"title": "Heist", "details": "...", "location": "Bank",
		"detective_id": detective.ID,
	})

	// The assigned detective may close the case.
	w := doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"status": "closed",
	}, detective.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[casePayload](t, w)
	assert.Equal(t, "closed", updated.Status)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Details, updated.Details)
	assert.Equal(t, created.Location, updated.Location)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	// Renaming is off limits and the case stays untouched.
	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"title": "x",
	}, detective.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var stored models.Case
	require.NoError(t, db.DB.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, "Heist", stored.Title)

	// One forbidden field denies the whole request, the permitted field
	// is not silently applied.
	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"status": "open",
		"title":  "x",
	}, detective.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, db.DB.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, "closed", stored.Status)

	// A detective the case is not assigned to cannot even see it.
	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"status": "open",
	}, other.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestManagerUpdateAndReassign(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")
	detective := signup(t, r, "D", "d@spynet.test", "detective")

	created := createCase(t, r, manager.Token, map[string]interface{}{
		"title": "Fraud", "details": "...", "location": "Docks",
	})

	// Managers may touch every field, including assignment.
	w := doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"title":        "Fraud ring",
		"location":     "Harbor",
		"status":       "in_progress",
		"detective_id": detective.ID,
	}, manager.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[casePayload](t, w)
	assert.Equal(t, "Fraud ring", updated.Title)
	assert.Equal(t, "Harbor", updated.Location)
	assert.Equal(t, "in_progress", updated.Status)
	require.NotNil(t, updated.DetectiveID)
	assert.Equal(t, detective.ID, *updated.DetectiveID)

	// Explicit null unassigns.
	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"detective_id": nil,
	}, manager.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Nil(t, decodeJSON[casePayload](t, w).DetectiveID)

	// Partial update semantics: absent fields are untouched.
	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"status": "closed",
	}, manager.Token)
	require.Equal(t, http.StatusOK, w.Code)
	final := decodeJSON[casePayload](t, w)
	assert.Equal(t, "Fraud ring", final.Title)
	assert.Equal(t, "Harbor", final.Location)
	assert.Equal(t, "closed", final.Status)
}

func TestUpdateCaseValidation(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")

	created := createCase(t, r, manager.Token, map[string]interface{}{
		"title": "T", "details": "D", "location": "L",
	})

	w := doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"status": "solved",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"priority": "high",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"title": "   ",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/cases/"+created.ID, map[string]interface{}{
		"detective_id": "00000000-0000-0000-0000-000000000000",
	}, manager.Token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPut, "/api/cases/00000000-0000-0000-0000-000000000000", map[string]interface{}{
		"status": "closed",
	}, manager.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCase(t *testing.T) {
	r := setupRouter(t)
	manager := signup(t, r, "M", "m@spynet.test", "manager")
	detective := signup(t, r, "D", "d@spynet.test", "detective")

	created := createCase(t, r, manager.Token, map[string]interface{}{
		"title": "T", "details": "D", "location": "L",
		"detective_id": detective.ID,
	})

	// Non-managers cannot delete, even their own cases.
	w := doRequest(r, http.MethodDelete, "/api/cases/"+created.ID, nil, detective.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.Case{}).Where("id = ?", created.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	w = doRequest(r, http.MethodDelete, "/api/cases/"+created.ID, nil, manager.Token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	// Deleting a gone case reports not found, not silent success.
	w = doRequest(r, http.MethodDelete, "/api/cases/"+created.ID, nil, manager.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
