package store

import "github.com/dukerupert/casa/internal/model"

// Stores holds one repository per collection.
type Stores struct {
	Users            *UserStore
	RoomTypes        *Repository[*model.RoomType]
	RoomTasks        *Repository[*model.RoomTask]
	Rooms            *Repository[*model.Room]
	MarketItems      *Repository[*model.MarketItem]
	MarketItemGroups *Repository[*model.MarketItemGroup]
	MarketCarts      *Repository[*model.MarketCart]
	MenuOptions      *Repository[*model.MenuOption]
	MenuGroups       *Repository[*model.MenuGroup]
	Menus            *Repository[*model.Menu]
	BabysitterTasks  *Repository[*model.BabysitterTask]
	Babysitters      *Repository[*model.Babysitter]
	Customs          *Repository[*model.Custom]
}

// NewStores builds every repository with its delete policy.
func NewStores(docs *DocumentStore) *Stores {
	return &Stores{
		Users: NewUserStore(docs),
		RoomTypes: NewRepository(docs, model.RoomTypes, "room type", SoftDelete,
			func() *model.RoomType { return &model.RoomType{} }),
		RoomTasks: NewRepository(docs, model.RoomTasks, "room task", SoftDelete,
			func() *model.RoomTask { return &model.RoomTask{} }),
		Rooms: NewRepository(docs, model.Rooms, "room", SoftDelete,
			func() *model.Room { return &model.Room{} }),
		MarketItems: NewRepository(docs, model.MarketItems, "market item", SoftDelete,
			func() *model.MarketItem { return &model.MarketItem{} }),
		MarketItemGroups: NewRepository(docs, model.MarketItemGroups, "market item group", HardDelete,
			func() *model.MarketItemGroup { return &model.MarketItemGroup{} }),
		MarketCarts: NewRepository(docs, model.MarketCarts, "market cart", SoftDelete,
			func() *model.MarketCart { return &model.MarketCart{} }),
		MenuOptions: NewRepository(docs, model.MenuOptions, "menu option", SoftDelete,
			func() *model.MenuOption { return &model.MenuOption{} }),
		MenuGroups: NewRepository(docs, model.MenuGroups, "menu group", SoftDelete,
			func() *model.MenuGroup { return &model.MenuGroup{} }),
		Menus: NewRepository(docs, model.Menus, "menu", SoftDelete,
			func() *model.Menu { return &model.Menu{} }),
		BabysitterTasks: NewRepository(docs, model.BabysitterTasks, "babysitter task", HardDelete,
			func() *model.BabysitterTask { return &model.BabysitterTask{} }),
		Babysitters: NewRepository(docs, model.Babysitters, "babysitter", HardDelete,
			func() *model.Babysitter { return &model.Babysitter{} }),
		Customs: NewRepository(docs, model.Customs, "custom", SoftDelete,
			func() *model.Custom { return &model.Custom{} }),
	}
}
