package domain

import "testing"

func TestNormalizeSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"eth-updown-5m-1772281500", "eth-updown-5m"},
		{"btc-updown-1h", "btc-updown-1h"},
		{"btc-updown-5m-200", "btc-updown-5m-200"}, // only 3 digits, not a round suffix
		{"no-dashes", "no-dashes"},
		{"mkt-00000001", "mkt"},
	}
	for _, c := range cases {
		if got := NormalizeSlug(c.in); got != c.want {
			t.Errorf("NormalizeSlug(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeSlugIdempotent(t *testing.T) {
	inputs := []string{
		"eth-updown-5m-1772281500",
		"btc-updown-1h",
		"x-12345678",
		"a-b-c-99999999",
	}
	for _, in := range inputs {
		once := NormalizeSlug(in)
		twice := NormalizeSlug(once)
		if once != twice {
			t.Errorf("NormalizeSlug not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
