package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/model"
	"github.com/dukerupert/casa/internal/recurrence"
	"github.com/dukerupert/casa/internal/store"
)

// RoomHandler adds bulk creation and the daily agenda to the room routes.
type RoomHandler struct {
	*Resource[*model.Room]
}

// CreateMany creates the rooms of a JSON array (or {"rooms": [...]}) in
// order. It is not atomic: it stops at the first failure and the rooms
// created before it are kept.
func (h *RoomHandler) CreateMany(w http.ResponseWriter, r *http.Request) Result {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBytes)

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return FailList(bodyError(err))
	}
	var items []Attributes
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Rooms []Attributes `json:"rooms"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return FailList(errs.New(errs.EInvalid, "expected an array of rooms"))
		}
		items = wrapped.Rooms
	}
	if len(items) == 0 {
		return FailList(errs.New(errs.EInvalid, "no rooms given"))
	}

	created := make([]*model.Room, 0, len(items))
	for i, attrs := range items {
		if attrs == nil {
			attrs = Attributes{}
		}
		room, err := h.create(r.Context(), attrs)
		if err != nil {
			return FailList(&errs.Error{
				Code: errs.Code(err),
				Msg:  "rooms[" + strconv.Itoa(i) + "]: " + errs.Message(err),
				Err:  err,
			})
		}
		created = append(created, room)
	}
	return OK("rooms created successfully", created)
}

// AgendaItem is one task due in a room on the agenda day.
type AgendaItem struct {
	Room      AgendaRoom `json:"room"`
	Task      model.Ref  `json:"task"`
	Frequency string     `json:"frequency"`
}

type AgendaRoom struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Agenda lists the room tasks of a user that fall on ?date (today by
// default).
func (h *RoomHandler) Agenda(r *http.Request) Result {
	owner := r.PathValue("ownerId")
	if err := h.actFor(r.Context(), owner); err != nil {
		return FailList(err)
	}

	day := h.now().UTC().Format(recurrence.DateLayout)
	if q := r.URL.Query().Get("date"); q != "" {
		day = q
	}
	t, err := recurrence.ParseDate(day)
	if err != nil {
		return FailList(errs.Newf(errs.EInvalid, "date: %v", err))
	}

	rooms, err := h.repo.ReadAll(r.Context(), store.Filter{Owner: owner}, store.Populate("tasks.task"))
	if err != nil {
		return FailList(err)
	}
	items := []AgendaItem{}
	for _, room := range rooms {
		for _, e := range room.Tasks {
			if !e.Starts(day) || !e.Occurs(t) {
				continue
			}
			items = append(items, AgendaItem{
				Room:      AgendaRoom{ID: room.ID, Name: room.Name},
				Task:      e.Task,
				Frequency: e.Describe(),
			})
		}
	}
	return OK("", items)
}

func (h *RoomHandler) Routes(prefix string) []Route {
	return append(h.Resource.Routes(prefix),
		Route{Pattern: "POST " + prefix + "/many", Handle: h.CreateMany},
		Route{Pattern: "GET " + prefix + "/user/{ownerId}/agenda", Handle: adapt(h.Agenda)},
	)
}

// BabysitterHandler adds the lookup of one day's schedule.
type BabysitterHandler struct {
	*Resource[*model.Babysitter]
}

func (h *BabysitterHandler) ByDate(r *http.Request) Result {
	owner := r.PathValue("ownerId")
	if err := h.actFor(r.Context(), owner); err != nil {
		return Fail(err)
	}
	f := store.Filter{Owner: owner, Key: r.PathValue("fullDate")}
	doc, err := h.repo.FindOne(r.Context(), f, populateSpec(r, h.opts.Populate))
	if err != nil {
		return Fail(err)
	}
	return OK("", doc)
}

func (h *BabysitterHandler) Routes(prefix string) []Route {
	return append(h.Resource.Routes(prefix),
		Route{Pattern: "GET " + prefix + "/user/{ownerId}/{fullDate}", Handle: adapt(h.ByDate)},
	)
}
