package model

// Collection names. Each maps to one table.
const (
	Users            = "users"
	RoomTypes        = "room_types"
	RoomTasks        = "room_tasks"
	Rooms            = "rooms"
	MarketItems      = "market_items"
	MarketItemGroups = "market_item_groups"
	MarketCarts      = "market_carts"
	MenuOptions      = "menu_options"
	MenuGroups       = "menu_groups"
	Menus            = "menus"
	BabysitterTasks  = "babysitter_tasks"
	Babysitters      = "babysitters"
	Customs          = "customs"
)

// Factories returns a constructor for the document type of every collection.
func Factories() map[string]func() Document {
	return map[string]func() Document{
		Users:            func() Document { return &User{} },
		RoomTypes:        func() Document { return &RoomType{} },
		RoomTasks:        func() Document { return &RoomTask{} },
		Rooms:            func() Document { return &Room{} },
		MarketItems:      func() Document { return &MarketItem{} },
		MarketItemGroups: func() Document { return &MarketItemGroup{} },
		MarketCarts:      func() Document { return &MarketCart{} },
		MenuOptions:      func() Document { return &MenuOption{} },
		MenuGroups:       func() Document { return &MenuGroup{} },
		Menus:            func() Document { return &Menu{} },
		BabysitterTasks:  func() Document { return &BabysitterTask{} },
		Babysitters:      func() Document { return &Babysitter{} },
		Customs:          func() Document { return &Custom{} },
	}
}
