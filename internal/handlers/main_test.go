package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spynet-dev/spynet/db"
	"github.com/spynet-dev/spynet/internal/auth"
	"github.com/spynet-dev/spynet/internal/router"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type casePayload struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Details     string    `json:"details"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	DetectiveID *string   `json:"detective_id"`
	ManagerID   *string   `json:"manager_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type authPayload struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"access_token"`
}

// setupRouter points the global DB at a fresh in-memory database and
// returns a fully wired engine, so every test runs the real middleware
// and routes.
func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	auth.Init("test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase())

	return router.NewRouter([]string{"http://localhost:3000"})
}

func doRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type account struct {
	ID    string
	Token string
}

func signup(t *testing.T, r *gin.Engine, name, email, role string) account {
	t.Helper()

	w := doRequest(r, http.MethodPost, "/api/auth/signup", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeJSON[authPayload](t, w)
	require.NotEmpty(t, resp.User.ID)
	require.NotEmpty(t, resp.AccessToken)
	return account{ID: resp.User.ID, Token: resp.AccessToken}
}

func createCase(t *testing.T, r *gin.Engine, token string, body map[string]interface{}) casePayload {
	t.Helper()

	w := doRequest(r, http.MethodPost, "/api/cases", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeJSON[casePayload](t, w)
}

func assign(t *testing.T, r *gin.Engine, managerToken, detectiveID string) {
	t.Helper()

	w := doRequest(r, http.MethodPost, "/api/users/assignments", map[string]string{
		"detective_id": detectiveID,
	}, managerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
