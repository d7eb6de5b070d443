package model

import (
	"strings"

	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/recurrence"
)

type BabysitterTask struct {
	Base
	Name string `json:"name"`
}

func (t *BabysitterTask) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	return nil
}

// Babysitter is one day's babysitting checklist. FullDate is YYYY-MM-DD.
type Babysitter struct {
	Base
	FullDate string `json:"fullDate"`
	Tasks    []Ref  `json:"tasks"`
	User     string `json:"user"`
}

func (b *Babysitter) Owner() string { return b.User }

func (b *Babysitter) Key() string { return b.FullDate }

func (b *Babysitter) Validate() error {
	if b.User == "" {
		return errs.New(errs.EInvalid, "user is required")
	}
	if _, err := recurrence.ParseDate(b.FullDate); err != nil {
		return errs.Newf(errs.EInvalid, "fullDate: %v", err)
	}
	return nil
}

func (b *Babysitter) Links() []Link { return refLinks("tasks", BabysitterTasks, b.Tasks) }

func (b *Babysitter) Prune() { b.Tasks = keep(b.Tasks) }
