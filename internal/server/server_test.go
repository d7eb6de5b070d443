package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/database"
	"github.com/dukerupert/casa/internal/handler"
	"github.com/dukerupert/casa/internal/store"
)

type testServer struct {
	h    http.Handler
	auth *auth.Service
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs := store.NewDocumentStore(db)
	stores := store.NewStores(docs)
	svc := auth.NewService(stores.Users, auth.NewTokenIssuer([]byte("test-secret"), time.Hour), bcrypt.MinCost)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := prometheus.NewRegistry()
	reg.MustRegister(docs)

	srv := New(Options{
		Routes:   handler.Routes(handler.Deps{Stores: stores, Auth: svc, UploadMaxBytes: 1 << 20}),
		DB:       docs,
		Auth:     svc,
		Registry: reg,
		Logger:   logger,
	})
	return &testServer{h: srv.Router(), auth: svc}
}

type response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, response) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(t, req, token)
}

func (ts *testServer) send(t *testing.T, req *http.Request, token string) (int, response) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, req)

	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode envelope %q: %v", req.Method, req.URL.Path, rec.Body.String(), err)
	}
	if resp.Code != rec.Code {
		t.Errorf("%s %s: envelope code %d != status %d", req.Method, req.URL.Path, resp.Code, rec.Code)
	}
	return rec.Code, resp
}

func (ts *testServer) user(t *testing.T, email string, admin bool) (id, token string) {
	t.Helper()
	sess, err := ts.auth.Register(context.Background(), email, "hunter22", admin)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return sess.User.ID, sess.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func wantStatus(t *testing.T, got, want int, resp response) {
	t.Helper()
	if got != want {
		t.Fatalf("status = %d, want %d (message %q)", got, want, resp.Message)
	}
}

type doc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	User      string `json:"user"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func TestHealth(t *testing.T) {
	ts := setupServer(t)

	status, resp := ts.do(t, "GET", "/health", "", nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "GET", "/health/ready", "", nil)
	wantStatus(t, status, http.StatusOK, resp)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupServer(t)
	status, resp := ts.do(t, "GET", "/nope", "", nil)
	wantStatus(t, status, http.StatusNotFound, resp)
}

func TestProtectedRouteNeedsToken(t *testing.T) {
	ts := setupServer(t)

	status, resp := ts.do(t, "GET", "/room-types", "", nil)
	wantStatus(t, status, http.StatusUnauthorized, resp)

	status, resp = ts.do(t, "GET", "/room-types", "garbage", nil)
	wantStatus(t, status, http.StatusUnauthorized, resp)
}

func TestRegisterLoginFlow(t *testing.T) {
	ts := setupServer(t)

	status, resp := ts.do(t, "POST", "/auth/register", "", map[string]any{"email": "ana@example.com", "password": "hunter22"})
	wantStatus(t, status, http.StatusOK, resp)
	sess := decode[map[string]any](t, resp.Data)
	if sess["token"] == "" || sess["email"] != "ana@example.com" || sess["isAdmin"] != false {
		t.Errorf("register data = %v", sess)
	}

	status, resp = ts.do(t, "POST", "/auth/register", "", map[string]any{"email": "ana@example.com", "password": "other"})
	wantStatus(t, status, http.StatusConflict, resp)

	status, resp = ts.do(t, "POST", "/auth/login", "", map[string]any{"email": "ana@example.com", "password": "wrong"})
	wantStatus(t, status, http.StatusUnauthorized, resp)

	status, resp = ts.do(t, "POST", "/auth/login", "", map[string]any{"email": "nobody@example.com", "password": "x"})
	wantStatus(t, status, http.StatusNotFound, resp)

	status, resp = ts.do(t, "POST", "/auth/login", "", map[string]any{"email": "ana@example.com", "password": "hunter22"})
	wantStatus(t, status, http.StatusOK, resp)
	token := decode[map[string]any](t, resp.Data)["token"].(string)

	status, resp = ts.do(t, "POST", "/auth/login-admin", "", map[string]any{"email": "ana@example.com", "password": "hunter22"})
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "GET", "/room-types", token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if string(resp.Data) != "[]" {
		t.Errorf("data = %s, want []", resp.Data)
	}
}

func TestRegisterAdminNeedsAdmin(t *testing.T) {
	ts := setupServer(t)
	_, userToken := ts.user(t, "ana@example.com", false)
	_, adminToken := ts.user(t, "root@example.com", true)

	body := map[string]any{"email": "eve@example.com", "password": "hunter22", "isAdmin": true}

	status, resp := ts.do(t, "POST", "/users", "", body)
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "POST", "/users", userToken, body)
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "POST", "/users", adminToken, body)
	wantStatus(t, status, http.StatusOK, resp)
}

func TestRegisterAdminForm(t *testing.T) {
	ts := setupServer(t)
	_, adminToken := ts.user(t, "root@example.com", true)

	form := func(isAdmin string) *http.Request {
		body := url.Values{"email": {"eve+" + isAdmin + "@example.com"}, "password": {"hunter22"}, "isAdmin": {isAdmin}}
		req := httptest.NewRequest("POST", "/auth/register", strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	status, resp := ts.send(t, form("true"), "")
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.send(t, form("yes please"), adminToken)
	wantStatus(t, status, http.StatusBadRequest, resp)

	status, resp = ts.send(t, form("true"), adminToken)
	wantStatus(t, status, http.StatusOK, resp)
	if sess := decode[map[string]any](t, resp.Data); sess["isAdmin"] != true {
		t.Errorf("register data = %v, want an administrator", sess)
	}

	status, resp = ts.send(t, form("false"), "")
	wantStatus(t, status, http.StatusOK, resp)
}

func TestUsersAccess(t *testing.T) {
	ts := setupServer(t)
	anaID, anaToken := ts.user(t, "ana@example.com", false)
	bobID, bobToken := ts.user(t, "bob@example.com", false)
	_, adminToken := ts.user(t, "root@example.com", true)

	status, resp := ts.do(t, "GET", "/users", anaToken, nil)
	wantStatus(t, status, http.StatusForbidden, resp)
	if string(resp.Data) != "{}" {
		t.Errorf("error data = %s, want {}", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/users", adminToken, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if strings.Contains(string(resp.Data), "passwordHash") {
		t.Error("password hash leaked in user list")
	}
	if got := len(decode[[]doc](t, resp.Data)); got != 3 {
		t.Errorf("users = %d, want 3", got)
	}

	status, resp = ts.do(t, "GET", "/users/"+anaID, anaToken, nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "GET", "/users/"+anaID, bobToken, nil)
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "GET", "/users/email/bob@example.com", bobToken, nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "PUT", "/users/"+anaID, anaToken, map[string]any{"isAdmin": true})
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "PUT", "/users/"+anaID, anaToken, map[string]any{"password": "newpass1"})
	wantStatus(t, status, http.StatusOK, resp)
	if _, err := ts.auth.Login(context.Background(), "ana@example.com", "newpass1"); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	status, resp = ts.do(t, "DELETE", "/users/"+bobID, adminToken, nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "GET", "/users/"+bobID, adminToken, nil)
	wantStatus(t, status, http.StatusNotFound, resp)
}

func TestRoomTypeTaskScenario(t *testing.T) {
	ts := setupServer(t)
	_, token := ts.user(t, "ana@example.com", false)

	status, resp := ts.do(t, "POST", "/room-types", token, map[string]any{"name": "Kitchen"})
	wantStatus(t, status, http.StatusOK, resp)
	if resp.Message != "room type created successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	kitchen := decode[doc](t, resp.Data)

	status, resp = ts.do(t, "POST", "/room-tasks", token, map[string]any{
		"name": "Sweep",
		"defaultFrequency": []any{
			map[string]any{"roomType": kitchen.ID, "frequency": "Weekly", "weekdays": []string{"monday"}},
		},
	})
	wantStatus(t, status, http.StatusOK, resp)
	sweep := decode[doc](t, resp.Data)

	status, resp = ts.do(t, "PUT", "/room-types/"+kitchen.ID, token, map[string]any{"tasks": []string{sweep.ID}})
	wantStatus(t, status, http.StatusOK, resp)
	updated := decode[doc](t, resp.Data)
	if updated.ID != kitchen.ID || updated.CreatedAt != kitchen.CreatedAt || updated.UpdatedAt == kitchen.UpdatedAt {
		t.Errorf("update identity: before %+v after %+v", kitchen, updated)
	}

	status, resp = ts.do(t, "GET", "/room-types/"+kitchen.ID, token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	got := decode[struct {
		Tasks []doc `json:"tasks"`
	}](t, resp.Data)
	if len(got.Tasks) != 1 || got.Tasks[0].Name != "Sweep" {
		t.Errorf("populated tasks = %+v", got.Tasks)
	}

	status, resp = ts.do(t, "GET", "/room-types/"+kitchen.ID+"?populate=none", token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	ids := decode[struct {
		Tasks []string `json:"tasks"`
	}](t, resp.Data)
	if len(ids.Tasks) != 1 || ids.Tasks[0] != sweep.ID {
		t.Errorf("unpopulated tasks = %v", ids.Tasks)
	}

	status, resp = ts.do(t, "DELETE", "/room-tasks/"+sweep.ID, token, nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "GET", "/room-tasks/"+sweep.ID, token, nil)
	wantStatus(t, status, http.StatusGone, resp)

	status, resp = ts.do(t, "GET", "/room-types/"+kitchen.ID, token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	got = decode[struct {
		Tasks []doc `json:"tasks"`
	}](t, resp.Data)
	if len(got.Tasks) != 0 {
		t.Errorf("removed task still listed: %+v", got.Tasks)
	}
}

func TestRoomOwnerScope(t *testing.T) {
	ts := setupServer(t)
	anaID, anaToken := ts.user(t, "ana@example.com", false)
	bobID, bobToken := ts.user(t, "bob@example.com", false)
	_, adminToken := ts.user(t, "root@example.com", true)

	_, resp := ts.do(t, "POST", "/room-types", anaToken, map[string]any{"name": "Kitchen"})
	kitchen := decode[doc](t, resp.Data)

	status, resp := ts.do(t, "POST", "/rooms", anaToken, map[string]any{"name": "Main kitchen", "roomType": kitchen.ID})
	wantStatus(t, status, http.StatusOK, resp)
	room := decode[doc](t, resp.Data)
	if room.User != anaID {
		t.Errorf("room owner = %q, want %q", room.User, anaID)
	}

	status, resp = ts.do(t, "POST", "/rooms", anaToken, map[string]any{"name": "Stolen", "roomType": kitchen.ID, "user": bobID})
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "GET", "/rooms/user/"+anaID, bobToken, nil)
	wantStatus(t, status, http.StatusForbidden, resp)
	if string(resp.Data) != "[]" {
		t.Errorf("list error data = %s, want []", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/rooms/user/"+bobID, bobToken, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if string(resp.Data) != "[]" {
		t.Errorf("bob's rooms = %s, want []", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/rooms/"+room.ID, bobToken, nil)
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "GET", "/rooms/user/"+anaID, adminToken, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if got := len(decode[[]doc](t, resp.Data)); got != 1 {
		t.Errorf("admin sees %d rooms, want 1", got)
	}

	status, resp = ts.do(t, "GET", "/rooms/"+room.ID, anaToken, nil)
	wantStatus(t, status, http.StatusOK, resp)
	populated := decode[struct {
		RoomType doc `json:"roomType"`
	}](t, resp.Data)
	if populated.RoomType.Name != "Kitchen" {
		t.Errorf("roomType not populated: %s", resp.Data)
	}
}

func TestCreateManyRooms(t *testing.T) {
	ts := setupServer(t)
	_, token := ts.user(t, "ana@example.com", false)
	_, resp := ts.do(t, "POST", "/room-types", token, map[string]any{"name": "Bedroom"})
	bedroom := decode[doc](t, resp.Data)

	status, resp := ts.do(t, "POST", "/rooms/many", token, []any{
		map[string]any{"name": "Master", "roomType": bedroom.ID},
		map[string]any{"name": "Guest", "roomType": bedroom.ID},
	})
	wantStatus(t, status, http.StatusOK, resp)
	if got := len(decode[[]doc](t, resp.Data)); got != 2 {
		t.Errorf("created %d rooms, want 2", got)
	}

	status, resp = ts.do(t, "POST", "/rooms/many", token, map[string]any{"rooms": []any{
		map[string]any{"name": "Kids", "roomType": bedroom.ID},
		map[string]any{"roomType": bedroom.ID},
	}})
	wantStatus(t, status, http.StatusBadRequest, resp)
	if !strings.HasPrefix(resp.Message, "rooms[1]") {
		t.Errorf("message = %q", resp.Message)
	}

	status, resp = ts.do(t, "GET", "/rooms", token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if got := len(decode[[]doc](t, resp.Data)); got != 3 {
		t.Errorf("rooms = %d, want 3", got)
	}
}

func TestRoomAgenda(t *testing.T) {
	ts := setupServer(t)
	anaID, token := ts.user(t, "ana@example.com", false)

	_, resp := ts.do(t, "POST", "/room-types", token, map[string]any{"name": "Kitchen"})
	kitchen := decode[doc](t, resp.Data)
	_, resp = ts.do(t, "POST", "/room-tasks", token, map[string]any{"name": "Mop"})
	mop := decode[doc](t, resp.Data)
	_, resp = ts.do(t, "POST", "/room-tasks", token, map[string]any{"name": "Dishes"})
	dishes := decode[doc](t, resp.Data)

	status, resp := ts.do(t, "POST", "/rooms", token, map[string]any{
		"name":     "Kitchen",
		"roomType": kitchen.ID,
		"tasks": []any{
			map[string]any{"task": mop.ID, "frequency": "Weekly", "weekdays": []string{"monday"}},
			map[string]any{"task": dishes.ID, "frequency": "Daily", "initialDate": "2025-03-04"},
		},
	})
	wantStatus(t, status, http.StatusOK, resp)

	// 2025-03-03 is a Monday.
	status, resp = ts.do(t, "GET", "/rooms/user/"+anaID+"/agenda?date=2025-03-03", token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	items := decode[[]struct {
		Room struct {
			Name string `json:"name"`
		} `json:"room"`
		Task doc `json:"task"`
	}](t, resp.Data)
	if len(items) != 1 || items[0].Task.Name != "Mop" || items[0].Room.Name != "Kitchen" {
		t.Errorf("monday agenda = %s", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/rooms/user/"+anaID+"/agenda?date=2025-03-04", token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	items = decode[[]struct {
		Room struct {
			Name string `json:"name"`
		} `json:"room"`
		Task doc `json:"task"`
	}](t, resp.Data)
	if len(items) != 1 || items[0].Task.Name != "Dishes" {
		t.Errorf("tuesday agenda = %s", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/rooms/user/"+anaID+"/agenda?date=March", token, nil)
	wantStatus(t, status, http.StatusBadRequest, resp)
}

func TestMarketCartDropsRemovedItem(t *testing.T) {
	ts := setupServer(t)
	_, token := ts.user(t, "ana@example.com", false)

	_, resp := ts.do(t, "POST", "/market-itens", token, map[string]any{"name": "Whole milk"})
	milk := decode[doc](t, resp.Data)
	if milk.Type != "dairy" {
		t.Errorf("milk type = %q, want dairy", milk.Type)
	}
	_, resp = ts.do(t, "POST", "/market-itens", token, map[string]any{"name": "Bananas", "type": "fruit"})
	bananas := decode[doc](t, resp.Data)
	if bananas.Type != "fruit" {
		t.Errorf("explicit type overwritten: %q", bananas.Type)
	}

	status, resp := ts.do(t, "POST", "/market-cart", token, map[string]any{
		"name": "Weekly",
		"itens": []any{
			map[string]any{"marketItem": milk.ID, "quantity": 2},
			map[string]any{"marketItem": bananas.ID, "quantity": 6},
		},
	})
	wantStatus(t, status, http.StatusOK, resp)
	cart := decode[doc](t, resp.Data)

	status, resp = ts.do(t, "DELETE", "/market-itens/"+bananas.ID, token, nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "GET", "/market-cart/"+cart.ID, token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	got := decode[struct {
		Itens []struct {
			MarketItem doc     `json:"marketItem"`
			Quantity   float64 `json:"quantity"`
		} `json:"itens"`
	}](t, resp.Data)
	if len(got.Itens) != 1 || got.Itens[0].MarketItem.Name != "Whole milk" || got.Itens[0].Quantity != 2 {
		t.Errorf("cart itens = %s", resp.Data)
	}
}

func TestSharedMarketItems(t *testing.T) {
	ts := setupServer(t)
	_, anaToken := ts.user(t, "ana@example.com", false)
	_, bobToken := ts.user(t, "bob@example.com", false)
	_, adminToken := ts.user(t, "root@example.com", true)

	status, resp := ts.do(t, "POST", "/market-itens", anaToken, map[string]any{"name": "Rice", "user": nil})
	wantStatus(t, status, http.StatusForbidden, resp)

	status, resp = ts.do(t, "POST", "/market-itens", adminToken, map[string]any{"name": "Rice", "user": nil})
	wantStatus(t, status, http.StatusOK, resp)
	rice := decode[doc](t, resp.Data)
	if rice.User != "" {
		t.Errorf("shared item owner = %q", rice.User)
	}

	ts.do(t, "POST", "/market-itens", anaToken, map[string]any{"name": "Coffee"})

	status, resp = ts.do(t, "GET", "/market-itens", bobToken, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if items := decode[[]doc](t, resp.Data); len(items) != 1 || items[0].Name != "Rice" {
		t.Errorf("bob sees %s", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/market-itens", anaToken, nil)
	wantStatus(t, status, http.StatusOK, resp)
	if got := len(decode[[]doc](t, resp.Data)); got != 2 {
		t.Errorf("ana sees %d items, want 2", got)
	}

	status, resp = ts.do(t, "GET", "/market-itens/"+rice.ID, bobToken, nil)
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "PUT", "/market-itens/"+rice.ID, bobToken, map[string]any{"name": "Brown rice"})
	wantStatus(t, status, http.StatusForbidden, resp)
}

func TestSoftAndHardDelete(t *testing.T) {
	ts := setupServer(t)
	_, token := ts.user(t, "ana@example.com", false)

	_, resp := ts.do(t, "POST", "/menu-groups", token, map[string]any{"name": "Quick", "meals": []string{"lunch"}})
	group := decode[doc](t, resp.Data)
	for i := 0; i < 2; i++ {
		status, resp := ts.do(t, "DELETE", "/menu-groups/"+group.ID, token, nil)
		wantStatus(t, status, http.StatusOK, resp)
	}
	status, resp := ts.do(t, "GET", "/menu-groups/"+group.ID, token, nil)
	wantStatus(t, status, http.StatusGone, resp)

	_, resp = ts.do(t, "POST", "/babysitter-tasks", token, map[string]any{"name": "Bath"})
	task := decode[doc](t, resp.Data)
	status, resp = ts.do(t, "DELETE", "/babysitter-tasks/"+task.ID, token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	status, resp = ts.do(t, "DELETE", "/babysitter-tasks/"+task.ID, token, nil)
	wantStatus(t, status, http.StatusNotFound, resp)
}

func TestBabysitterByDate(t *testing.T) {
	ts := setupServer(t)
	anaID, token := ts.user(t, "ana@example.com", false)

	_, resp := ts.do(t, "POST", "/babysitter-tasks", token, map[string]any{"name": "Homework"})
	task := decode[doc](t, resp.Data)

	status, resp := ts.do(t, "POST", "/babysitter", token, map[string]any{"fullDate": "2025-03-03", "tasks": []string{task.ID}})
	wantStatus(t, status, http.StatusOK, resp)

	status, resp = ts.do(t, "GET", "/babysitter/user/"+anaID+"/2025-03-03", token, nil)
	wantStatus(t, status, http.StatusOK, resp)
	day := decode[struct {
		FullDate string `json:"fullDate"`
		Tasks    []doc  `json:"tasks"`
	}](t, resp.Data)
	if day.FullDate != "2025-03-03" || len(day.Tasks) != 1 || day.Tasks[0].Name != "Homework" {
		t.Errorf("babysitter day = %s", resp.Data)
	}

	status, resp = ts.do(t, "GET", "/babysitter/user/"+anaID+"/2025-03-04", token, nil)
	wantStatus(t, status, http.StatusNotFound, resp)
}

func TestValidationError(t *testing.T) {
	ts := setupServer(t)
	_, token := ts.user(t, "ana@example.com", false)

	status, resp := ts.do(t, "POST", "/menus", token, map[string]any{"meals": []any{}})
	wantStatus(t, status, http.StatusBadRequest, resp)

	req := httptest.NewRequest("POST", "/menus", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	status, resp = ts.send(t, req, token)
	wantStatus(t, status, http.StatusBadRequest, resp)
}

func TestMultipartIconUpload(t *testing.T) {
	ts := setupServer(t)
	_, token := ts.user(t, "ana@example.com", false)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("name", "Bathroom")
	mw.WriteField("tasks", "[]")
	fw, err := mw.CreateFormFile("image", "bath.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(png)
	mw.Close()

	req := httptest.NewRequest("POST", "/room-types", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	status, resp := ts.send(t, req, token)
	wantStatus(t, status, http.StatusOK, resp)

	got := decode[struct {
		Name string `json:"name"`
		Icon struct {
			Data        []byte `json:"data"`
			ContentType string `json:"contentType"`
		} `json:"icon"`
	}](t, resp.Data)
	if got.Name != "Bathroom" || got.Icon.ContentType != "image/png" || !bytes.Equal(got.Icon.Data, png) {
		t.Errorf("uploaded room type = %+v", got)
	}
}

func TestAuthRateLimit(t *testing.T) {
	ts := setupServer(t)
	body := map[string]any{"email": "nobody@example.com", "password": "x"}

	for i := 0; i < authRateLimit; i++ {
		status, resp := ts.do(t, "POST", "/auth/login", "", body)
		wantStatus(t, status, http.StatusNotFound, resp)
	}
	status, resp := ts.do(t, "POST", "/auth/login", "", body)
	wantStatus(t, status, http.StatusTooManyRequests, resp)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServer(t)
	ts.do(t, "GET", "/health", "", nil)

	rec := httptest.NewRecorder()
	ts.h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{`casa_http_requests_total{method="GET",route="GET /health",status="200"} 1`, "casa_documents_live"} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
