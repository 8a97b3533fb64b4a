package places

import "strings"

// DefaultNeighborhood is used when an address matches no gazetteer entry.
const DefaultNeighborhood = "bangalore"

// Neighborhood is one gazetteer entry. Aliases are alternate spellings seen
// in formatted addresses.
type Neighborhood struct {
	Name    string
	Aliases []string
}

// Gazetteer lists the neighborhoods searched and matched, most specific
// first: "Church Street" must win over a plain "MG Road" match in an address
// that mentions both.
var Gazetteer = []Neighborhood{
	{Name: "HSR Layout"},
	{Name: "BTM Layout"},
	{Name: "JP Nagar", Aliases: []string{"J P Nagar", "J.P. Nagar"}},
	{Name: "Electronic City"},
	{Name: "Sarjapur Road"},
	{Name: "Church Street"},
	{Name: "Brigade Road"},
	{Name: "Residency Road"},
	{Name: "Lavelle Road"},
	{Name: "UB City"},
	{Name: "MG Road", Aliases: []string{"M.G. Road", "Mahatma Gandhi Road"}},
	{Name: "Indiranagar", Aliases: []string{"Indira Nagar"}},
	{Name: "Koramangala"},
	{Name: "Whitefield"},
	{Name: "Jayanagar"},
	{Name: "Malleshwaram", Aliases: []string{"Malleswaram"}},
	{Name: "Marathahalli"},
	{Name: "Hebbal"},
	{Name: "Bellandur"},
	{Name: "Yelahanka"},
	{Name: "Banashankari"},
}

// AssignNeighborhood returns the first name in gazetteer whose name or alias
// occurs in address, ignoring case, or DefaultNeighborhood.
func AssignNeighborhood(address string, gazetteer []Neighborhood) string {
	lower := strings.ToLower(address)
	for _, n := range gazetteer {
		if strings.Contains(lower, strings.ToLower(n.Name)) {
			return n.Name
		}
		for _, a := range n.Aliases {
			if strings.Contains(lower, strings.ToLower(a)) {
				return n.Name
			}
		}
	}
	return DefaultNeighborhood
}

// VenueKind is a category of venue searched for in every neighborhood.
type VenueKind struct {
	Kind  string
	Query string
}

// Kinds are searched in order.
var Kinds = []VenueKind{
	{Kind: "brewery", Query: "breweries"},
	{Kind: "pub", Query: "pubs"},
	{Kind: "cafe", Query: "cafes"},
	{Kind: "restaurant", Query: "restaurants"},
	{Kind: "live-music", Query: "live music venues"},
}

// SearchQuery builds the text query for one kind in one neighborhood.
func SearchQuery(kind VenueKind, n Neighborhood, city string) string {
	return kind.Query + " in " + n.Name + " " + city
}
