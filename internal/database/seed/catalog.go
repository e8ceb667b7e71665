// Package seed fills an empty warehouse with demo master data and a few weeks
// of posted documents.
package seed

// catalogItem is a demo stock-keeping unit.
type catalogItem struct {
	Name     string
	Category string
	Spec     string
	Unit     string
	MinStock int64
}

// Categories are the demo item categories.
var Categories = []string{
	"Fasteners",
	"Electrical",
	"Cleaning",
	"Office",
	"Safety",
	"Packaging",
}

var catalog = []catalogItem{
	{"Hex bolt", "Fasteners", "M8x40", "pcs", 200},
	{"Hex nut", "Fasteners", "M8", "pcs", 200},
	{"Flat washer", "Fasteners", "8mm", "pcs", 300},
	{"Wood screw", "Fasteners", "4x30", "box", 10},
	{"Cable tie", "Electrical", "200mm", "bag", 20},
	{"Insulating tape", "Electrical", "19mm black", "roll", 30},
	{"Extension lead", "Electrical", "4-way 3m", "pcs", 5},
	{"LED tube", "Electrical", "T8 1200mm", "pcs", 12},
	{"Floor cleaner", "Cleaning", "5L", "can", 6},
	{"Paper towel", "Cleaning", "2-ply", "roll", 48},
	{"Trash bag", "Cleaning", "80L", "roll", 20},
	{"Copy paper", "Office", "A4 80g", "ream", 40},
	{"Ballpoint pen", "Office", "blue", "box", 5},
	{"Marker", "Office", "permanent black", "pcs", 20},
	{"Work gloves", "Safety", "size L", "pair", 30},
	{"Safety goggles", "Safety", "", "pcs", 10},
	{"Ear plugs", "Safety", "foam", "box", 4},
	{"Packing tape", "Packaging", "48mm clear", "roll", 36},
	{"Carton", "Packaging", "40x30x30", "pcs", 50},
	{"Stretch film", "Packaging", "500mm", "roll", 8},
}

// Operators are the demo warehouse staff.
var Operators = []string{"alice", "bob", "carol", "dave"}

var suppliers = []string{
	"Acme Industrial Supply",
	"Northside Hardware",
	"Brightline Electrical",
	"CleanPro Distributors",
	"Office Direct",
}

var requesters = []string{
	"Maintenance",
	"Workshop",
	"Front office",
	"Shipping",
	"Facilities",
}
