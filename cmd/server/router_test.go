package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Chijioke91/Task-Api/internal/avatar"
	"github.com/Chijioke91/Task-Api/internal/database/dbtest"
	"github.com/Chijioke91/Task-Api/internal/handlers"
	"github.com/Chijioke91/Task-Api/internal/services"
	"github.com/Chijioke91/Task-Api/internal/storage"
	"github.com/Chijioke91/Task-Api/internal/websocket"
	"github.com/Chijioke91/Task-Api/pkg/auth"
	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := dbtest.New(t)
	store := storage.NewDatabaseStore(db)

	pool := avatar.NewPool(2, nil)
	t.Cleanup(pool.Close)

	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	tokens := services.NewTokenService(db, auth.NewJWTManager("test-secret", time.Hour), nil, hub, logger)
	users := services.NewUserService(db, tokens, store, nil, hub, logger)
	avatars := services.NewAvatarService(store, pool, hub)
	tasks := services.NewTaskService(db, hub)

	r := gin.New()
	APIEndpoints(r, Handlers{
		Auth:      handlers.NewAuthHandler(users, tokens, logger),
		User:      handlers.NewUserHandler(users, logger),
		Avatar:    handlers.NewAvatarHandler(avatars, logger),
		Task:      handlers.NewTaskHandler(tasks, logger),
		WebSocket: handlers.NewWebSocketHandler(hub, logger),
		Health:    handlers.NewHealthHandler(db, logger),
	}, tokens)
	return r
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type authResponse struct {
	User struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Age   int    `json:"age"`
	} `json:"user"`
	Token string `json:"token"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func register(t *testing.T, r http.Handler, email string) authResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/users", "", gin.H{
		"name": "Ann", "email": email, "password": "red12345!", "age": 27,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authResponse](t, w)
}

func uploadRequest(t *testing.T, token, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/me/avatar", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func jpegFixture(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 640, 120))
	for x := 0; x < 640; x++ {
		for y := 0; y < 120; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, jpeg.Encode(buf, img, nil))
	return buf.Bytes()
}

func TestAPI_RegisterLoginMeLogout(t *testing.T) {
	r := newTestRouter(t)

	reg := register(t, r, "ann@x.com")
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ann@x.com", reg.User.Email)
	assert.NotContains(t, do(t, r, http.MethodGet, "/users/me", reg.Token, nil).Body.String(), "password")

	w := do(t, r, http.MethodPost, "/users/login", "", gin.H{"email": "ann@x.com", "password": "red12345!"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[authResponse](t, w)
	assert.NotEqual(t, reg.Token, login.Token)

	w = do(t, r, http.MethodGet, "/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]any](t, w)
	assert.Equal(t, reg.User.ID, me["id"])
	assert.Equal(t, "Ann", me["name"])

	w = do(t, r, http.MethodPost, "/users/logout", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/users/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Please authenticate."}`, w.Body.String())

	// первая сессия не пострадала
	w = do(t, r, http.MethodGet, "/users/me", reg.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_RegisterRejectsInvalidInput(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@x.com")

	for name, body := range map[string]any{
		"duplicate email": gin.H{"name": "Bob", "email": "ANN@x.com", "password": "blue12345!"},
		"weak password":   gin.H{"name": "Bob", "email": "bob@x.com", "password": "password123"},
		"bad email":       gin.H{"name": "Bob", "email": "bob", "password": "blue12345!"},
		"malformed json":  "{",
	} {
		w := do(t, r, http.MethodPost, "/users", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestAPI_LoginFailuresLookTheSame(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@x.com")

	wrongPass := do(t, r, http.MethodPost, "/users/login", "", gin.H{"email": "ann@x.com", "password": "nope"})
	noUser := do(t, r, http.MethodPost, "/users/login", "", gin.H{"email": "bob@x.com", "password": "red12345!"})

	assert.Equal(t, http.StatusBadRequest, wrongPass.Code)
	assert.Equal(t, http.StatusBadRequest, noUser.Code)
	assert.Equal(t, wrongPass.Body.String(), noUser.Body.String())
}

func TestAPI_AuthRequired(t *testing.T) {
	r := newTestRouter(t)

	for _, tc := range []struct{ method, path, token string }{
		{http.MethodGet, "/users/me", ""},
		{http.MethodGet, "/users/me", "garbage"},
		{http.MethodPost, "/users/logoutAll", ""},
		{http.MethodGet, "/tasks", ""},
		{http.MethodGet, "/users/me/events", ""},
	} {
		w := do(t, r, tc.method, tc.path, tc.token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
	}
}

func TestAPI_LogoutAll(t *testing.T) {
	r := newTestRouter(t)
	reg := register(t, r, "ann@x.com")
	login := decode[authResponse](t, do(t, r, http.MethodPost, "/users/login", "", gin.H{"email": "ann@x.com", "password": "red12345!"}))

	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/users/logoutAll", login.Token, nil).Code)

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/users/me", reg.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/users/me", login.Token, nil).Code)
}

func TestAPI_UpdateMe(t *testing.T) {
	r := newTestRouter(t)
	reg := register(t, r, "ann@x.com")

	w := do(t, r, http.MethodPatch, "/users/me", reg.Token, `{"name":"Hacker","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid Updates"}`, w.Body.String())

	me := decode[map[string]any](t, do(t, r, http.MethodGet, "/users/me", reg.Token, nil))
	assert.Equal(t, "Ann", me["name"])

	// ключи сравниваются с учётом регистра
	w = do(t, r, http.MethodPatch, "/users/me", reg.Token, `{"NAME":"Upper"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid Updates"}`, w.Body.String())

	w = do(t, r, http.MethodPatch, "/users/me", reg.Token, `{"name":"Z"} {"role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	me = decode[map[string]any](t, do(t, r, http.MethodGet, "/users/me", reg.Token, nil))
	assert.Equal(t, "Ann", me["name"])

	w = do(t, r, http.MethodPatch, "/users/me", reg.Token, gin.H{"age": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPatch, "/users/me", reg.Token, gin.H{"name": "Anna", "age": 28})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[map[string]any](t, w)
	assert.Equal(t, "Anna", updated["name"])
	assert.EqualValues(t, 28, updated["age"])
}

func TestAPI_DeleteMe(t *testing.T) {
	r := newTestRouter(t)
	reg := register(t, r, "ann@x.com")

	w := do(t, r, http.MethodDelete, "/users/me", reg.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann@x.com", decode[map[string]any](t, w)["email"])

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/users/me", reg.Token, nil).Code)
	w = do(t, r, http.MethodPost, "/users/login", "", gin.H{"email": "ann@x.com", "password": "red12345!"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_Avatar(t *testing.T) {
	r := newTestRouter(t)
	reg := register(t, r, "ann@x.com")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, reg.Token, "x.txt", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Please upload an image file"}`, w.Body.String())

	// тип файла проверяется раньше размера
	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, reg.Token, "x.txt", bytes.Repeat([]byte{'a'}, 2*avatar.MaxUploadBytes)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Please upload an image file"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, reg.Token, "big.png", bytes.Repeat([]byte{1}, 2*avatar.MaxUploadBytes)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"File too large"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, reg.Token, "big.png", bytes.Repeat([]byte{1}, avatar.MaxUploadBytes+1)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"File too large"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, reg.Token, "me.JPG", jpegFixture(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"success","message":"Upload successful"}`, w.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, do(t, r, http.MethodGet, "/users/me", reg.Token, nil))["hasAvatar"])

	w = do(t, r, http.MethodGet, "/users/"+reg.User.ID+"/avatar", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 250, 250), img.Bounds())

	require.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, "/users/me/avatar", reg.Token, nil).Code)
	assert.Equal(t, false, decode[map[string]any](t, do(t, r, http.MethodGet, "/users/me", reg.Token, nil))["hasAvatar"])

	w = do(t, r, http.MethodGet, "/users/"+reg.User.ID+"/avatar", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode[map[string]any](t, w), "error")

	w = do(t, r, http.MethodGet, "/users/not-a-uuid/avatar", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAPI_Tasks(t *testing.T) {
	r := newTestRouter(t)
	ann := register(t, r, "ann@x.com")
	bob := register(t, r, "bob@x.com")

	w := do(t, r, http.MethodPost, "/tasks", ann.Token, gin.H{"description": "walk the dog"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[map[string]any](t, w)
	id := task["id"].(string)
	assert.Equal(t, false, task["completed"])
	assert.Equal(t, ann.User.ID, task["owner"])

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/tasks", ann.Token, gin.H{"description": "read", "completed": true}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodPost, "/tasks", ann.Token, gin.H{"description": ""}).Code)

	w = do(t, r, http.MethodGet, "/tasks?completed=true", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[[]map[string]any](t, w)
	require.Len(t, done, 1)
	assert.Equal(t, "read", done[0]["description"])

	w = do(t, r, http.MethodGet, "/tasks?sortBy=description:asc&limit=1&skip=1", ann.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[[]map[string]any](t, w)
	require.Len(t, page, 1)
	assert.Equal(t, "walk the dog", page[0]["description"])

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/tasks?completed=maybe", ann.Token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/tasks?sortBy=password:asc", ann.Token, nil).Code)

	// чужие задачи не видны
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/tasks/"+id, bob.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/tasks/"+id, bob.Token, gin.H{"completed": true}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/tasks/"+id, bob.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/tasks/nope", ann.Token, nil).Code)

	w = do(t, r, http.MethodPatch, "/tasks/"+id, ann.Token, `{"owner":"someone"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid Updates"}`, w.Body.String())

	w = do(t, r, http.MethodPatch, "/tasks/"+id, ann.Token, gin.H{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["completed"])

	require.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, "/tasks/"+id, ann.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/tasks/"+id, ann.Token, nil).Code)
}

func TestAPI_Health(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPI_EventStream(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	reg := register(t, srv.Config.Handler, "ann@x.com")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/users/me/events?token=" + reg.Token
	conn, resp, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// клиент регистрируется в hub асинхронно, поэтому создаём задачи, пока событие не придёт
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	received := make(chan websocket.Event, 8)
	go func() {
		defer close(received)
		for {
			var ev websocket.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			received <- ev
		}
	}()

	var got websocket.Event
	require.Eventually(t, func() bool {
		do(t, srv.Config.Handler, http.MethodPost, "/tasks", reg.Token, gin.H{"description": "ping"})
		select {
		case got = <-received:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, websocket.EventType(services.EventTaskCreated), got.Type)

	require.Equal(t, http.StatusOK, do(t, srv.Config.Handler, http.MethodPost, "/users/logout", reg.Token, nil).Code)

	for ev := range received {
		if ev.Type == websocket.TypeSessionRevoked {
			return
		}
	}
	t.Fatal("connection closed without session_revoked event")
}
