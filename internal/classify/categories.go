package classify

import (
	"strings"

	"artify/internal/textutil"
)

// Category identifiers.
const (
	Spectacles  = "spectacles"
	Musique     = "musique"
	ArtsVisuels = "arts_visuels"
	Ateliers    = "ateliers"
	Sport       = "sport"
	Gastronomie = "gastronomie"
	Culture     = "culture"
	Nightlife   = "nightlife"
	Rencontres  = "rencontres"
)

// DefaultCategory is assigned when nothing matches.
const DefaultCategory = Culture

// Categories lists every category in tie-break order.
var Categories = []string{Spectacles, Musique, ArtsVisuels, Ateliers, Sport, Gastronomie, Culture, Nightlife, Rencontres}

// Valid reports whether category is one of Categories.
func Valid(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

var subCategories = map[string][]string{
	Spectacles:  {"theatre", "opera", "ballet", "danse", "humour", "stand_up", "cirque", "magie", "cabaret"},
	Musique:     {"classique", "jazz", "rock", "pop", "electro", "rap", "world", "chanson_francaise", "symphonique"},
	ArtsVisuels: {"exposition", "musee", "galerie", "photographie", "street_art", "art_contemporain", "vernissage"},
	Ateliers:    {"ceramique", "poterie", "peinture", "dessin", "sculpture", "couture", "bijoux", "ecriture"},
	Sport:       {"yoga", "fitness", "running", "escalade", "danse", "arts_martiaux", "velo"},
	Gastronomie: {"degustation_vin", "cours_cuisine", "patisserie", "brunch", "food_market"},
	Culture:     {"cinema", "conference", "visite_guidee", "lecture", "masterclass"},
	Nightlife:   {"club", "bar", "rooftop", "speakeasy", "soiree"},
	Rencontres:  {"meetup", "networking", "afterwork", "speed_dating"},
}

// SubCategories returns the known sub-categories of category.
func SubCategories(category string) []string {
	return append([]string(nil), subCategories[category]...)
}

var keywords = map[string][]string{
	Spectacles: {
		"théâtre", "theatre", "opéra", "opera", "ballet", "danse", "dance",
		"comédie", "comedy", "humour", "stand-up", "standup", "one man show",
		"cirque", "circus", "magie", "magic", "cabaret", "spectacle", "pièce",
		"marionnettes", "improvisation", "impro",
	},
	Musique: {
		"concert", "musique", "music", "live", "jazz", "rock", "pop", "electro",
		"electronic", "classique", "classical", "symphonie", "symphony", "orchestre",
		"orchestra", "rap", "hip-hop", "hip hop", "chanson", "folk", "blues",
		"récital", "philharmonie", "chamber music", "quartet", "trio",
	},
	ArtsVisuels: {
		"exposition", "exhibition", "expo", "musée", "museum", "galerie", "gallery",
		"art", "vernissage", "photographie", "photography", "photo", "peinture",
		"painting", "sculpture", "installation", "beaux-arts", "contemporain",
	},
	Ateliers: {
		"atelier", "workshop", "cours", "class", "stage", "céramique", "ceramics",
		"poterie", "pottery", "peinture", "painting", "dessin", "drawing",
		"sculpture", "couture", "sewing", "bijoux", "jewelry", "créatif", "creative",
		"diy", "fabrication", "initiation",
	},
	Sport: {
		"sport", "fitness", "yoga", "pilates", "running", "course", "vélo", "cycling",
		"escalade", "climbing", "natation", "swimming", "musculation", "gym",
		"boxe", "boxing", "arts martiaux", "martial arts", "match", "compétition",
	},
	Gastronomie: {
		"dégustation", "tasting", "vin", "wine", "cuisine", "cooking", "chef",
		"gastronomie", "gastronomy", "pâtisserie", "pastry", "chocolat", "chocolate",
		"fromage", "cheese", "brunch", "food", "restaurant", "repas", "dîner", "dinner",
	},
	Culture: {
		"cinéma", "film", "movie", "conférence", "conference", "talk",
		"lecture", "visite", "visit", "guidée", "guided", "patrimoine", "heritage",
		"histoire", "history", "littérature", "literature", "livre", "book", "débat",
	},
	Nightlife: {
		"club", "soirée", "party", "nuit", "night", "dj", "dancing",
		"bar", "cocktail", "rooftop", "speakeasy", "lounge", "afterparty",
	},
	Rencontres: {
		"meetup", "networking", "afterwork", "rencontre", "meeting", "social",
		"speed dating", "apéro", "drinks", "échange", "exchange", "conversation",
		"communauté", "community",
	},
}

var aliases = map[string]string{
	"concert": Musique, "concerts": Musique, "music": Musique, "musique": Musique,
	"live music": Musique, "classical": Musique, "classique": Musique, "jazz": Musique,
	"rock": Musique, "pop": Musique, "electro": Musique, "electronic": Musique,

	"opera": Spectacles, "theater": Spectacles, "theatre": Spectacles, "comedy": Spectacles,
	"comedie": Spectacles, "stand-up": Spectacles, "standup": Spectacles, "humour": Spectacles,
	"circus": Spectacles, "cirque": Spectacles, "danse": Spectacles, "dance": Spectacles,
	"ballet": Spectacles, "cabaret": Spectacles, "spectacle": Spectacles, "spectacles": Spectacles,

	"exhibition": ArtsVisuels, "exposition": ArtsVisuels, "expo": ArtsVisuels, "museum": ArtsVisuels,
	"musee": ArtsVisuels, "gallery": ArtsVisuels, "galerie": ArtsVisuels, "art": ArtsVisuels,
	"photography": ArtsVisuels, "photographie": ArtsVisuels, "vernissage": ArtsVisuels,

	"workshop": Ateliers, "atelier": Ateliers, "ateliers": Ateliers, "class": Ateliers, "cours": Ateliers,
	"ceramics": Ateliers, "ceramique": Ateliers, "pottery": Ateliers, "poterie": Ateliers,
	"painting": Ateliers, "peinture": Ateliers, "drawing": Ateliers, "dessin": Ateliers,
	"craft": Ateliers, "artisanat": Ateliers,

	"sport": Sport, "fitness": Sport, "yoga": Sport, "running": Sport, "cycling": Sport, "velo": Sport,

	"food": Gastronomie, "wine": Gastronomie, "vin": Gastronomie, "cooking": Gastronomie,
	"cuisine": Gastronomie, "gastronomie": Gastronomie, "degustation": Gastronomie,
	"tasting": Gastronomie, "brunch": Gastronomie,

	"culture": Culture, "conference": Culture, "talk": Culture, "lecture": Culture, "film": Culture,
	"cinema": Culture, "movie": Culture, "visite": Culture, "visit": Culture,
	"guided tour": Culture, "visite guidee": Culture,

	"party": Nightlife, "soiree": Nightlife, "club": Nightlife, "dj": Nightlife, "bar": Nightlife,
	"nightlife": Nightlife,

	"meetup": Rencontres, "networking": Rencontres, "afterwork": Rencontres,
	"speed dating": Rencontres, "social": Rencontres, "rencontres": Rencontres,
}

// CategoryForAlias maps a source's own category label onto a catalog
// category. Unknown or empty labels report false.
func CategoryForAlias(label string) (string, bool) {
	key := textutil.Fold(label)
	if key == "" {
		return "", false
	}
	if Valid(strings.ReplaceAll(key, " ", "_")) {
		return strings.ReplaceAll(key, " ", "_"), true
	}
	if category, ok := aliases[key]; ok {
		return category, true
	}
	alt := strings.ReplaceAll(key, " ", "-")
	category, ok := aliases[alt]
	return category, ok
}
