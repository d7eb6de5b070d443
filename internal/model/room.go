package model

import (
	"strings"

	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/recurrence"
)

type RoomType struct {
	Base
	Name  string `json:"name"`
	Icon  *Icon  `json:"icon,omitempty"`
	Tasks []Ref  `json:"tasks"`
}

func (t *RoomType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	return nil
}

func (t *RoomType) Links() []Link { return refLinks("tasks", RoomTasks, t.Tasks) }

func (t *RoomType) Prune() { t.Tasks = keep(t.Tasks) }

// TaskFrequency is the default recurrence of a task in rooms of one type.
type TaskFrequency struct {
	RoomType Ref `json:"roomType"`
	recurrence.Rule
}

type RoomTask struct {
	Base
	Name             string          `json:"name"`
	Icon             *Icon           `json:"icon,omitempty"`
	DefaultFrequency []TaskFrequency `json:"defaultFrequency"`
}

func (t *RoomTask) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	for i, f := range t.DefaultFrequency {
		if f.RoomType.IsZero() {
			return errs.Newf(errs.EInvalid, "defaultFrequency[%d].roomType is required", i)
		}
		if err := f.Validate(); err != nil {
			return errs.Newf(errs.EInvalid, "defaultFrequency[%d]: %v", i, err)
		}
	}
	return nil
}

func (t *RoomTask) Links() []Link {
	links := make([]Link, 0, len(t.DefaultFrequency))
	for i := range t.DefaultFrequency {
		links = append(links, Link{Path: "defaultFrequency.roomType", Collection: RoomTypes, Ref: &t.DefaultFrequency[i].RoomType, List: true})
	}
	return links
}

func (t *RoomTask) Prune() {
	kept := make([]TaskFrequency, 0, len(t.DefaultFrequency))
	for _, f := range t.DefaultFrequency {
		if !f.RoomType.Stale() {
			kept = append(kept, f)
		}
	}
	t.DefaultFrequency = kept
}

// RoomTaskEntry schedules a task in a room. InitialDate (YYYY-MM-DD) is the
// first day the schedule applies.
type RoomTaskEntry struct {
	Task Ref `json:"task"`
	recurrence.Rule
	InitialDate string `json:"initialDate,omitempty"`
}

// Starts reports whether the entry is active on the given YYYY-MM-DD day.
func (e RoomTaskEntry) Starts(day string) bool {
	return e.InitialDate == "" || e.InitialDate <= day
}

type MarketListEntry struct {
	Item     Ref     `json:"item"`
	Quantity float64 `json:"quantity"`
	Note     string  `json:"note,omitempty"`
	Checked  bool    `json:"checked"`
}

type Room struct {
	Base
	Name       string            `json:"name"`
	RoomType   Ref               `json:"roomType"`
	Tasks      []RoomTaskEntry   `json:"tasks"`
	MarketList []MarketListEntry `json:"marketList"`
	User       string            `json:"user"`
}

func (r *Room) Owner() string { return r.User }

func (r *Room) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	if r.RoomType.IsZero() {
		return errs.New(errs.EInvalid, "roomType is required")
	}
	if r.User == "" {
		return errs.New(errs.EInvalid, "user is required")
	}
	for i, e := range r.Tasks {
		if e.Task.IsZero() {
			return errs.Newf(errs.EInvalid, "tasks[%d].task is required", i)
		}
		if err := e.Validate(); err != nil {
			return errs.Newf(errs.EInvalid, "tasks[%d]: %v", i, err)
		}
		if e.InitialDate != "" {
			if _, err := recurrence.ParseDate(e.InitialDate); err != nil {
				return errs.Newf(errs.EInvalid, "tasks[%d].initialDate: %v", i, err)
			}
		}
	}
	for i, e := range r.MarketList {
		if e.Item.IsZero() {
			return errs.Newf(errs.EInvalid, "marketList[%d].item is required", i)
		}
		if e.Quantity < 0 {
			return errs.Newf(errs.EInvalid, "marketList[%d].quantity must not be negative", i)
		}
	}
	return nil
}

func (r *Room) Links() []Link {
	links := make([]Link, 0, 1+len(r.Tasks)+len(r.MarketList))
	if !r.RoomType.IsZero() {
		links = append(links, Link{Path: "roomType", Collection: RoomTypes, Ref: &r.RoomType})
	}
	for i := range r.Tasks {
		links = append(links, Link{Path: "tasks.task", Collection: RoomTasks, Ref: &r.Tasks[i].Task, List: true})
	}
	for i := range r.MarketList {
		links = append(links, Link{Path: "marketList.item", Collection: MarketItems, Ref: &r.MarketList[i].Item, List: true})
	}
	return links
}

func (r *Room) Prune() {
	tasks := make([]RoomTaskEntry, 0, len(r.Tasks))
	for _, e := range r.Tasks {
		if !e.Task.Stale() {
			tasks = append(tasks, e)
		}
	}
	r.Tasks = tasks

	list := make([]MarketListEntry, 0, len(r.MarketList))
	for _, e := range r.MarketList {
		if !e.Item.Stale() {
			list = append(list, e)
		}
	}
	r.MarketList = list
}
