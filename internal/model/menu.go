package model

import (
	"strings"

	"github.com/dukerupert/casa/internal/errs"
)

type Meal string

const (
	Breakfast Meal = "breakfast"
	Snack     Meal = "snack"
	Lunch     Meal = "lunch"
	Dinner    Meal = "dinner"
)

func (m Meal) Valid() bool {
	switch m {
	case Breakfast, Snack, Lunch, Dinner:
		return true
	}
	return false
}

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

type MenuOption struct {
	Base
	Name string `json:"name"`
	User string `json:"user"`
}

func (o *MenuOption) Owner() string { return o.User }

func (o *MenuOption) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	if o.User == "" {
		return errs.New(errs.EInvalid, "user is required")
	}
	return nil
}

// MenuGroup groups menu options and the meals they suit.
type MenuGroup struct {
	Base
	Name    string `json:"name"`
	Icon    *Icon  `json:"icon,omitempty"`
	Options []Ref  `json:"options"`
	Meals   []Meal `json:"meals"`
}

func (g *MenuGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	for _, m := range g.Meals {
		if !m.Valid() {
			return errs.Newf(errs.EInvalid, "invalid meal %q", m)
		}
	}
	return nil
}

func (g *MenuGroup) Links() []Link { return refLinks("options", MenuOptions, g.Options) }

func (g *MenuGroup) Prune() { g.Options = keep(g.Options) }

type MenuMeal struct {
	Meal        Meal    `json:"meal"`
	Day         Weekday `json:"day"`
	MenuOptions []Ref   `json:"menuOptions"`
}

// Menu is a weekly meal plan.
type Menu struct {
	Base
	Name  string     `json:"name"`
	Meals []MenuMeal `json:"meals"`
	User  string     `json:"user"`
}

func (m *Menu) Owner() string { return m.User }

func (m *Menu) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errs.New(errs.EInvalid, "name is required")
	}
	if m.User == "" {
		return errs.New(errs.EInvalid, "user is required")
	}
	for i, meal := range m.Meals {
		if !meal.Meal.Valid() {
			return errs.Newf(errs.EInvalid, "meals[%d]: invalid meal %q", i, meal.Meal)
		}
		if !meal.Day.Valid() {
			return errs.Newf(errs.EInvalid, "meals[%d]: invalid day %q", i, meal.Day)
		}
	}
	return nil
}

func (m *Menu) Links() []Link {
	var links []Link
	for i := range m.Meals {
		links = append(links, refLinks("meals.menuOptions", MenuOptions, m.Meals[i].MenuOptions)...)
	}
	return links
}

func (m *Menu) Prune() {
	meals := make([]MenuMeal, 0, len(m.Meals))
	for _, meal := range m.Meals {
		meal.MenuOptions = keep(meal.MenuOptions)
		meals = append(meals, meal)
	}
	m.Meals = meals
}
