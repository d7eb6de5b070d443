package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/events"
	"github.com/dukerupert/casa/internal/model"
	"github.com/dukerupert/casa/internal/store"
)

// UserHandler serves registration, login and the users resource.
type UserHandler struct {
	users    *store.UserStore
	auth     *auth.Service
	notifier events.Notifier
	maxBytes int64
}

func NewUserHandler(users *store.UserStore, svc *auth.Service, notifier events.Notifier, maxBytes int64) *UserHandler {
	return &UserHandler{users: users, auth: svc, notifier: notifier, maxBytes: maxBytes}
}

type sessionView struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

func newSessionView(s *auth.Session) sessionView {
	return sessionView{ID: s.User.ID, Email: s.User.Email, IsAdmin: s.User.IsAdmin, Token: s.Token}
}

// Register creates a user. Creating an administrator needs an admin token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) Result {
	attrs, err := readAttributes(w, r, h.maxBytes, false)
	if err != nil {
		return Fail(err)
	}
	isAdmin, err := attrs.Flag("isAdmin")
	if err != nil {
		return Fail(err)
	}
	if isAdmin {
		ac, err := h.auth.Verify(auth.BearerToken(r))
		if err != nil {
			return Fail(errs.New(errs.EForbidden, "only administrators can register administrators"))
		}
		if _, err := h.auth.RequireAdmin(r.Context(), ac.UserID); err != nil {
			return Fail(err)
		}
	}

	session, err := h.auth.Register(r.Context(), attrs.String("email"), attrs.String("password"), isAdmin)
	if err != nil {
		return Fail(err)
	}
	h.notify(r.Context(), events.Created, session.User.ID)
	return OK("user registered successfully", newSessionView(session))
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) Result {
	return h.login(w, r, h.auth.Login)
}

func (h *UserHandler) LoginAdmin(w http.ResponseWriter, r *http.Request) Result {
	return h.login(w, r, h.auth.LoginAdmin)
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, email, password string) (*auth.Session, error)) Result {
	attrs, err := readAttributes(w, r, h.maxBytes, false)
	if err != nil {
		return Fail(err)
	}
	session, err := fn(r.Context(), attrs.String("email"), attrs.String("password"))
	if err != nil {
		return Fail(err)
	}
	return OK("logged in successfully", newSessionView(session))
}

func (h *UserHandler) List(r *http.Request) Result {
	users, err := h.users.ReadAll(r.Context(), store.Filter{}, nil)
	if err != nil {
		return FailList(err)
	}
	views := make([]model.UserView, 0, len(users))
	for _, u := range users {
		views = append(views, u.View())
	}
	return OK("", views)
}

func (h *UserHandler) Get(r *http.Request) Result {
	id := r.PathValue("id")
	if err := h.selfOrAdmin(r.Context(), id); err != nil {
		return Fail(err)
	}
	u, err := h.users.ReadOne(r.Context(), id, nil)
	if err != nil {
		return Fail(err)
	}
	return OK("", u.View())
}

func (h *UserHandler) ByEmail(r *http.Request) Result {
	u, err := h.users.GetByEmail(r.Context(), r.PathValue("email"))
	if err != nil {
		return Fail(err)
	}
	if err := h.selfOrAdmin(r.Context(), u.ID); err != nil {
		return Fail(err)
	}
	return OK("", u.View())
}

// Update changes email, password or, for admins, the admin flag.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) Result {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := h.selfOrAdmin(ctx, id); err != nil {
		return Fail(err)
	}
	current, err := h.users.ReadOne(ctx, id, nil)
	if err != nil {
		return Fail(err)
	}

	attrs, err := readAttributes(w, r, h.maxBytes, false)
	if err != nil {
		return Fail(err)
	}
	delete(attrs, "passwordHash")
	if attrs.Has("password") {
		hash, err := h.auth.HashPassword(attrs.String("password"))
		if err != nil {
			return Fail(err)
		}
		delete(attrs, "password")
		attrs.Set("passwordHash", hash)
	}
	if attrs.Has("email") {
		attrs.Set("email", model.NormalizeEmail(attrs.String("email")))
	}
	if attrs.Has("isAdmin") {
		isAdmin, err := attrs.Flag("isAdmin")
		if err != nil {
			return Fail(err)
		}
		attrs.Set("isAdmin", isAdmin)
		if isAdmin != current.IsAdmin {
			if _, err := h.auth.RequireAdmin(ctx, auth.UserID(ctx)); err != nil {
				return Fail(err)
			}
		}
	}

	u, err := h.users.Update(ctx, id, attrs)
	if err != nil {
		return Fail(err)
	}
	h.notify(ctx, events.Updated, u.ID)
	return OK("user updated successfully", u.View())
}

func (h *UserHandler) Delete(r *http.Request) Result {
	ctx := r.Context()
	id := r.PathValue("id")
	if err := h.selfOrAdmin(ctx, id); err != nil {
		return Fail(err)
	}
	if err := h.users.Delete(ctx, id); err != nil {
		return Fail(err)
	}
	h.notify(ctx, events.Deleted, id)
	return OK("user deleted successfully", map[string]string{"id": id})
}

func (h *UserHandler) selfOrAdmin(ctx context.Context, id string) error {
	if id != "" && id == auth.UserID(ctx) {
		return nil
	}
	_, err := h.auth.RequireAdmin(ctx, auth.UserID(ctx))
	return err
}

func (h *UserHandler) notify(ctx context.Context, action events.Action, id string) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(ctx, events.Change{Entity: "user", Action: action, ID: id, Owner: id, At: time.Now().UTC()})
}

func (h *UserHandler) Routes() []Route {
	return []Route{
		{Pattern: "POST /auth/register", Handle: h.Register, Access: Public, Limited: true},
		{Pattern: "POST /auth/login", Handle: h.Login, Access: Public, Limited: true},
		{Pattern: "POST /auth/login-admin", Handle: h.LoginAdmin, Access: Public, Limited: true},
		{Pattern: "POST /users", Handle: h.Register, Access: Public, Limited: true},
		{Pattern: "GET /users", Handle: adapt(h.List), Access: Admin},
		{Pattern: "GET /users/{id}", Handle: adapt(h.Get)},
		{Pattern: "GET /users/email/{email}", Handle: adapt(h.ByEmail)},
		{Pattern: "PUT /users/{id}", Handle: h.Update},
		{Pattern: "DELETE /users/{id}", Handle: adapt(h.Delete)},
	}
}
