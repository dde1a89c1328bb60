package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/khadimfall/magal-events/internal/auth"
	"github.com/khadimfall/magal-events/internal/database/testutil"
	"github.com/khadimfall/magal-events/internal/middleware"
	"github.com/khadimfall/magal-events/internal/models"
)

type testEnv struct {
	db     *gorm.DB
	jwt    *iauth.JWTService
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "handler-test-secret"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(middleware.Recovery())

	authHandler, err := NewAuthHandler(db, jwtSvc, nil)
	require.NoError(t, err)
	eventHandler, err := NewEventHandler(db, nil)
	require.NoError(t, err)
	signupHandler, err := NewSignupHandler(db, nil)
	require.NoError(t, err)
	pointHandler, err := NewPointHandler(db, nil)
	require.NoError(t, err)
	favoriteHandler, err := NewFavoriteHandler(db)
	require.NoError(t, err)
	notificationHandler, err := NewNotificationHandler(db, nil)
	require.NoError(t, err)

	r.POST("/api/auth/register", authHandler.Register)
	r.POST("/api/auth/login", authHandler.Login)

	requireAuth := middleware.Auth(jwtSvc)
	api := r.Group("/api", requireAuth)
	api.GET("/auth/me", authHandler.Me)
	api.GET("/events", eventHandler.List)
	api.GET("/events/:id", eventHandler.Get)
	api.POST("/events/:id/signup", signupHandler.SignUp)
	api.DELETE("/events/:id/signup", signupHandler.Cancel)
	api.GET("/signups/me", signupHandler.ListMine)
	api.GET("/points", pointHandler.List)
	api.POST("/points/:id/favorite", favoriteHandler.Add)
	api.DELETE("/points/:id/favorite", favoriteHandler.Remove)
	api.GET("/favorites/me", favoriteHandler.ListMine)
	api.GET("/notifications/me", notificationHandler.ListMine)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)

	admin := api.Group("", middleware.RequireAdmin())
	admin.POST("/events", eventHandler.Create)
	admin.PATCH("/events/:id", eventHandler.Update)
	admin.DELETE("/events/:id", eventHandler.Delete)
	admin.POST("/points", pointHandler.Create)
	admin.POST("/notifications/broadcast", notificationHandler.Broadcast)

	return &testEnv{db: db, jwt: jwtSvc, router: r}
}

func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "hashed",
		Role:      role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"first_name": "Khadim",
		"last_name":  "Fall",
		"email":      "khadim@example.com",
		"password":   "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Weak payloads are rejected before the service runs
	w = env.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"first_name": "Khadim",
		"email":      "not-an-email",
		"password":   "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "khadim@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	payload := decodeBody(t, w)
	data := payload["data"].(map[string]any)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	w = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "khadim@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventSignupOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	admin := createUser(t, env.db, "admin@example.com", models.RoleAdmin)
	pilgrim := createUser(t, env.db, "pilgrim@example.com", models.RolePilgrim)
	adminToken := env.tokenFor(t, admin)
	pilgrimToken := env.tokenFor(t, pilgrim)

	// Pilgrims cannot create events
	w := env.do(t, http.MethodPost, "/api/events", pilgrimToken, gin.H{
		"title":     "Grand Magal",
		"starts_at": time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"location":  "Touba",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/events", adminToken, gin.H{
		"title":        "Grand Magal",
		"starts_at":    time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"location":     "Touba",
		"max_capacity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	eventID := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/events/%s/signup", eventID), pilgrimToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate signup conflicts with a distinct code
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/events/%s/signup", eventID), pilgrimToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "ALREADY_SIGNED_UP")

	// A second pilgrim hits the capacity wall
	other := createUser(t, env.db, "other@example.com", models.RolePilgrim)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/events/%s/signup", eventID), env.tokenFor(t, other), nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "EVENT_FULL")

	w = env.do(t, http.MethodGet, "/api/signups/me", pilgrimToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "upcoming")

	// Start is more than 24h away, so cancellation is allowed
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/%s/signup", eventID), pilgrimToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/%s/signup", eventID), pilgrimToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoritesOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	admin := createUser(t, env.db, "admin@example.com", models.RoleAdmin)
	pilgrim := createUser(t, env.db, "pilgrim@example.com", models.RolePilgrim)
	pilgrimToken := env.tokenFor(t, pilgrim)

	w := env.do(t, http.MethodPost, "/api/points", env.tokenFor(t, admin), gin.H{
		"name":    "Grande Mosquee",
		"type":    "mosque",
		"address": "Touba",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	pointID := decodeBody(t, w)["data"].(map[string]any)["id"].(string)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/points/%s/favorite", pointID), pilgrimToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/points/%s/favorite", pointID), pilgrimToken, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/favorites/me", pilgrimToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Grande Mosquee")

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/points/%s/favorite", pointID), pilgrimToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/points/%s/favorite", pointID), pilgrimToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBroadcastAndInboxOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	admin := createUser(t, env.db, "admin@example.com", models.RoleAdmin)
	pilgrim := createUser(t, env.db, "pilgrim@example.com", models.RolePilgrim)
	adminToken := env.tokenFor(t, admin)
	pilgrimToken := env.tokenFor(t, pilgrim)

	w := env.do(t, http.MethodPost, "/api/notifications/broadcast", pilgrimToken, gin.H{
		"title":   "Programme",
		"message": "Message",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/api/notifications/broadcast", adminToken, gin.H{
		"title":   "Programme",
		"message": "Le programme est disponible",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	notification := data["notification"].(map[string]any)
	notificationID := notification["id"].(string)
	require.EqualValues(t, 1, data["recipient_count"])

	w = env.do(t, http.MethodGet, "/api/notifications/me", pilgrimToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Programme")

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", notificationID), pilgrimToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The admin is not a recipient of their own broadcast
	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%s/read", notificationID), adminToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
