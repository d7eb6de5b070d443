package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/dukerupert/casa/internal/auth"
	"github.com/dukerupert/casa/internal/errs"
	"github.com/dukerupert/casa/internal/events"
	"github.com/dukerupert/casa/internal/market"
	"github.com/dukerupert/casa/internal/model"
	"github.com/dukerupert/casa/internal/store"
)

// Access is who may call a route.
type Access int

const (
	// Authenticated routes need a valid bearer token.
	Authenticated Access = iota
	Public
	// Admin routes need a token of a user that is an admin in the store.
	Admin
)

// Route binds a mux pattern to a handler.
type Route struct {
	Pattern string
	Handle  Func
	Access  Access
	// Limited routes are rate limited per client IP.
	Limited bool
}

// Deps are the collaborators of the API handlers.
type Deps struct {
	Stores         *store.Stores
	Auth           *auth.Service
	Notifier       events.Notifier
	UploadMaxBytes int64
}

// Routes builds every resource route of the API.
func Routes(d Deps) []Route {
	s := d.Stores
	limit := d.UploadMaxBytes

	roomTypes := NewResource(s.RoomTypes, func() *model.RoomType { return &model.RoomType{} }, d.Auth, d.Notifier,
		Options[*model.RoomType]{Entity: "room_type", Populate: store.Populate("tasks"), Uploads: true, MaxBytes: limit})
	roomTasks := NewResource(s.RoomTasks, func() *model.RoomTask { return &model.RoomTask{} }, d.Auth, d.Notifier,
		Options[*model.RoomTask]{Entity: "room_task", Uploads: true, MaxBytes: limit})
	rooms := &RoomHandler{NewResource(s.Rooms, func() *model.Room { return &model.Room{} }, d.Auth, d.Notifier,
		Options[*model.Room]{Entity: "room", Scope: Owned, Populate: store.Populate("roomType", "tasks.task", "marketList.item"), MaxBytes: limit})}
	marketItems := NewResource(s.MarketItems, func() *model.MarketItem { return &model.MarketItem{} }, d.Auth, d.Notifier,
		Options[*model.MarketItem]{Entity: "market_item", Scope: Shared, Populate: store.Populate("group"), MaxBytes: limit,
			BeforeCreate: categorize})
	marketItemGroups := NewResource(s.MarketItemGroups, func() *model.MarketItemGroup { return &model.MarketItemGroup{} }, d.Auth, d.Notifier,
		Options[*model.MarketItemGroup]{Entity: "market_item_group", Uploads: true, MaxBytes: limit})
	marketCarts := NewResource(s.MarketCarts, func() *model.MarketCart { return &model.MarketCart{} }, d.Auth, d.Notifier,
		Options[*model.MarketCart]{Entity: "market_cart", Scope: Owned, Populate: store.Populate("itens.marketItem"), MaxBytes: limit})
	menuOptions := NewResource(s.MenuOptions, func() *model.MenuOption { return &model.MenuOption{} }, d.Auth, d.Notifier,
		Options[*model.MenuOption]{Entity: "menu_option", Scope: Owned, MaxBytes: limit})
	menuGroups := NewResource(s.MenuGroups, func() *model.MenuGroup { return &model.MenuGroup{} }, d.Auth, d.Notifier,
		Options[*model.MenuGroup]{Entity: "menu_group", Populate: store.Populate("options"), Uploads: true, MaxBytes: limit})
	menus := NewResource(s.Menus, func() *model.Menu { return &model.Menu{} }, d.Auth, d.Notifier,
		Options[*model.Menu]{Entity: "menu", Scope: Owned, Populate: store.Populate("meals.menuOptions"), MaxBytes: limit})
	babysitterTasks := NewResource(s.BabysitterTasks, func() *model.BabysitterTask { return &model.BabysitterTask{} }, d.Auth, d.Notifier,
		Options[*model.BabysitterTask]{Entity: "babysitter_task", MaxBytes: limit})
	babysitters := &BabysitterHandler{NewResource(s.Babysitters, func() *model.Babysitter { return &model.Babysitter{} }, d.Auth, d.Notifier,
		Options[*model.Babysitter]{Entity: "babysitter", Scope: Owned, Populate: store.Populate("tasks"), MaxBytes: limit})}
	customs := NewResource(s.Customs, func() *model.Custom { return &model.Custom{} }, d.Auth, d.Notifier,
		Options[*model.Custom]{Entity: "custom", Scope: Owned, MaxBytes: limit})
	users := NewUserHandler(s.Users, d.Auth, d.Notifier, limit)

	var routes []Route
	routes = append(routes, roomTypes.Routes("/room-types")...)
	routes = append(routes, roomTasks.Routes("/room-tasks")...)
	routes = append(routes, rooms.Routes("/rooms")...)
	routes = append(routes, marketItems.Routes("/market-itens")...)
	routes = append(routes, marketItemGroups.Routes("/market-item-groups")...)
	routes = append(routes, marketCarts.Routes("/market-cart")...)
	routes = append(routes, menuOptions.Routes("/menu-options")...)
	routes = append(routes, menuGroups.Routes("/menu-groups")...)
	routes = append(routes, menus.Routes("/menus")...)
	routes = append(routes, babysitterTasks.Routes("/babysitter-tasks")...)
	routes = append(routes, babysitters.Routes("/babysitter")...)
	routes = append(routes, customs.Routes("/custom")...)
	routes = append(routes, users.Routes()...)
	return routes
}

// categorize fills in the type of a market item created without one.
func categorize(_ context.Context, item *model.MarketItem) {
	if strings.TrimSpace(item.Type) == "" {
		item.Type = market.Categorize(item.Name)
	}
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is the liveness probe.
func Health(r *http.Request) Result {
	return OK("ok", map[string]string{"status": "ok"})
}

// Ready reports whether the database answers.
func Ready(db Pinger) Func {
	return adapt(func(r *http.Request) Result {
		if err := db.Ping(r.Context()); err != nil {
			return Fail(errs.Wrap(err, errs.EInternal, "handler.Ready"))
		}
		return OK("ready", map[string]string{"status": "ready"})
	})
}

// HealthRoutes are the unauthenticated probe routes.
func HealthRoutes(db Pinger) []Route {
	return []Route{
		{Pattern: "GET /health", Handle: adapt(Health), Access: Public},
		{Pattern: "GET /health/ready", Handle: Ready(db), Access: Public},
	}
}
