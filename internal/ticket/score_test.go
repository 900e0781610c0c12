package ticket

import (
	"testing"

	"artify/internal/pagefetch"
)

func TestBlocked(t *testing.T) {
	const page = "https://venue.example/evenements/jazz-14-mars"
	tests := []struct {
		href string
		want bool
	}{
		{"javascript:void(0)", true},
		{"mailto:box@venue.example", true},
		{"tel:+33100000000", true},
		{"#reserver", true},
		{"https://venue.example", true},
		{"https://venue.example/", true},
		{"https://venue.example/agenda", true},
		{"https://venue.example/concerts/", true},
		{"https://venue.example/events", true},
		{"https://venue.example/category/jazz", true},
		{"https://venue.example/artistes/miles", true},
		{"https://venue.example/contact", true},
		{"https://venue.example/evenements/jazz-14-mars#top", true},
		{"ftp://venue.example/billets", true},
		{"https://venue.example/billetterie/jazz", false},
		{"https://www.weezevent.com/jazz", false},
		{"https://venue.example/agenda/jazz-14-mars", false},
	}
	for _, tt := range tests {
		if got := Blocked(tt.href, page); got != tt.want {
			t.Errorf("Blocked(%q) = %v, want %v", tt.href, got, tt.want)
		}
	}
}

func TestScoreRanksURLOverText(t *testing.T) {
	const page = "https://venue.example/evenements/jazz"
	host := Score(pagefetch.Link{Href: "https://www.billetweb.fr/jazz"}, page)
	path := Score(pagefetch.Link{Href: "https://venue.example/reservation/jazz"}, page)
	strong := Score(pagefetch.Link{Href: "https://venue.example/infos", Text: "Acheter des billets"}, page)
	weak := Score(pagefetch.Link{Href: "https://venue.example/infos", Text: "Tickets"}, page)
	none := Score(pagefetch.Link{Href: "https://venue.example/presse", Text: "Presse"}, page)
	blocked := Score(pagefetch.Link{Href: "https://venue.example/agenda", Text: "Réserver"}, page)

	if !(host > path && path > strong && strong > weak && weak > none) {
		t.Fatalf("unexpected ordering host=%d path=%d strong=%d weak=%d none=%d", host, path, strong, weak, none)
	}
	if none != 0 || blocked != 0 {
		t.Fatalf("expected zero scores, got none=%d blocked=%d", none, blocked)
	}
}

func TestScoreClassHint(t *testing.T) {
	const page = "https://venue.example/evenements/jazz"
	plain := Score(pagefetch.Link{Href: "https://venue.example/infos", Text: "Book now"}, page)
	hinted := Score(pagefetch.Link{Href: "https://venue.example/infos", Text: "Book now", Class: "btn ticket-button"}, page)
	if hinted != plain+scoreClassHint {
		t.Fatalf("expected class hint bonus, got %d vs %d", hinted, plain)
	}
	if got := Score(pagefetch.Link{Href: "https://venue.example/infos", Class: "booking"}, page); got != 0 {
		t.Fatalf("class alone must not make a candidate, got %d", got)
	}
}
