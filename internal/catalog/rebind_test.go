package catalog

import "testing"

func TestRebindDollar(t *testing.T) {
	got := rebindDollar("SELECT id FROM events WHERE category = ? AND date_start >= ? LIMIT 5")
	want := "SELECT id FROM events WHERE category = $1 AND date_start >= $2 LIMIT 5"
	if got != want {
		t.Fatalf("rebindDollar = %q, want %q", got, want)
	}
	store := &Store{driver: DriverSQLite}
	if q := store.rebind("a = ?"); q != "a = ?" {
		t.Fatalf("sqlite query rewritten: %q", q)
	}
}
