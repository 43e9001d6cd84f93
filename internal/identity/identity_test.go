package identity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lowercase and trim", in: "  Blæst  ", want: "blæst"},
		{name: "featuring marker", in: "Medina feat. Svenstrup", want: "medina svenstrup"},
		{name: "ft marker", in: "Medina ft Svenstrup", want: "medina svenstrup"},
		{name: "featuring word", in: "Medina Featuring Svenstrup", want: "medina svenstrup"},
		{name: "ft inside word kept", in: "Left Behind", want: "left behind"},
		{name: "ft after danish letter kept", in: "Kræft", want: "kræft"},
		{name: "ft before mix kept", in: "Søft Mix", want: "søft mix"},
		{name: "featuring after danish word", in: "Blå feat. Svenstrup", want: "blå svenstrup"},
		{name: "edit inside danish word kept", in: "Tøradio Edit", want: "tøradio edit"},
		{name: "remastered after danish letter kept", in: "Æremastered", want: "æremastered"},
		{name: "ft with trailing dot at end", in: "Medina ft.", want: "medina"},
		{name: "bracketed radio edit", in: "Elsker Dig Så Meget (Radio Edit)", want: "elsker dig så meget"},
		{name: "square bracket remix", in: "Kun For Mig [Svenstrup Remix]", want: "kun for mig"},
		{name: "curly bracket live", in: "Kun For Mig {Live}", want: "kun for mig"},
		{name: "unrelated brackets kept", in: "Song (Part 2)", want: "song (part 2)"},
		{name: "bare radio edit", in: "Song - Radio Edit", want: "song"},
		{name: "bare clean edit", in: "Song Clean Edit", want: "song"},
		{name: "remastered year", in: "Song Remastered 2011", want: "song"},
		{name: "remaster word", in: "Song remaster", want: "song"},
		{name: "ampersand", in: "Simon & Garfunkel", want: "simon and garfunkel"},
		{name: "collapse whitespace", in: "a \t  b\n c", want: "a b c"},
		{name: "mojibake dash", in: "Aâ€“B", want: "a-b"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Elsker Dig Så Meget (Radio Edit)",
		"radio feat edit",
		"A  &  B",
		"Song - Radio Edit -",
		"- leading dash",
		"Track (Extended Mix) [Remastered 2011] feat. Someone",
		"Ünïcödé   Tïtle",
		"Song Remastered 2011 Remastered",
		"a &(live) b",
		"Kræft ft ft Søft",
		"ft.ft. feat",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestKey(t *testing.T) {
	a := Key("Blæst", "Elsker Dig Så Meget (Radio Edit)")
	b := Key("blæst", "Elsker Dig Så Meget")
	if a != b {
		t.Errorf("Key() = %q and %q, want equal", a, b)
	}
	if want := "blæst - elsker dig så meget"; a != want {
		t.Errorf("Key() = %q, want %q", a, want)
	}
}

func TestSplitTrack(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantArtist string
		wantTitle  string
	}{
		{name: "simple", in: "Medina - Kun For Mig", wantArtist: "Medina", wantTitle: "Kun For Mig"},
		{name: "first separator wins", in: "A - B - C", wantArtist: "A", wantTitle: "B - C"},
		{name: "no separator", in: "Kun For Mig", wantArtist: "", wantTitle: "Kun For Mig"},
		{name: "hyphen without spaces", in: "Jay-Z", wantArtist: "", wantTitle: "Jay-Z"},
		{name: "padded", in: "  Medina  -  Kun For Mig ", wantArtist: "Medina", wantTitle: "Kun For Mig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := SplitTrack(tt.in)
			if artist != tt.wantArtist || title != tt.wantTitle {
				t.Errorf("SplitTrack(%q) = (%q, %q), want (%q, %q)", tt.in, artist, title, tt.wantArtist, tt.wantTitle)
			}
		})
	}
}

func TestJoinTrack(t *testing.T) {
	if got := JoinTrack("Medina", "Kun For Mig"); got != "Medina - Kun For Mig" {
		t.Errorf("JoinTrack() = %q", got)
	}
	if got := JoinTrack("", "Kun For Mig"); got != "Kun For Mig" {
		t.Errorf("JoinTrack() with empty artist = %q", got)
	}
}
