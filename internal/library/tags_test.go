package library

import "testing"

func TestTagsFromMetadata(t *testing.T) {
	tests := []struct {
		name       string
		artist     string
		title      string
		raw        map[string]interface{}
		wantArtist string
		wantTitle  string
		wantTempo  float64
		wantKey    string
	}{
		{
			name:       "id3 frames",
			artist:     "Medina",
			title:      "Kun For Mig",
			raw:        map[string]interface{}{"TBPM": "124", "TKEY": "8a"},
			wantArtist: "Medina",
			wantTitle:  "Kun For Mig",
			wantTempo:  124,
			wantKey:    "8A",
		},
		{
			name:       "raw artist fallback",
			raw:        map[string]interface{}{"TPE1": "Blæst", "TIT2": "Elsker Dig", "tmpo": 98},
			wantArtist: "Blæst",
			wantTitle:  "Elsker Dig",
			wantTempo:  98,
		},
		{
			name:       "substring frame names",
			artist:     "A",
			title:      "B",
			raw:        map[string]interface{}{"txxx:fbpm": "128.5", "musical_key": "Amin"},
			wantArtist: "A",
			wantTitle:  "B",
			wantTempo:  128.5,
			wantKey:    "Am",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tagsFromMetadata(tt.artist, tt.title, tt.raw)
			if got.Artist != tt.wantArtist || got.Title != tt.wantTitle {
				t.Errorf("artist/title = %q/%q, want %q/%q", got.Artist, got.Title, tt.wantArtist, tt.wantTitle)
			}
			if tt.wantTempo == 0 {
				if got.Tempo != nil {
					t.Errorf("Tempo = %v, want nil", *got.Tempo)
				}
			} else if got.Tempo == nil || *got.Tempo != tt.wantTempo {
				t.Errorf("Tempo = %v, want %v", got.Tempo, tt.wantTempo)
			}
			if got.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", got.Key, tt.wantKey)
			}
		})
	}
}

func TestSplitFilename(t *testing.T) {
	tests := []struct {
		path       string
		wantArtist string
		wantTitle  string
		wantOK     bool
	}{
		{path: "/music/Medina - Kun For Mig.mp3", wantArtist: "Medina", wantTitle: "Kun For Mig", wantOK: true},
		{path: "/music/Medina-Kun For Mig.mp3", wantOK: false},
		{path: "/music/Jay-Z - Empire State of Mind.mp3", wantArtist: "Jay-Z", wantTitle: "Empire State of Mind", wantOK: true},
		{path: "/music/Nik & Jay - Ta-Da.mp3", wantArtist: "Nik & Jay", wantTitle: "Ta-Da", wantOK: true},
		{path: "/music/A - B - C.flac", wantArtist: "A", wantTitle: "B - C", wantOK: true},
		{path: "/music/untitled.mp3", wantOK: false},
		{path: "/music/ - Title.mp3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			artist, title, ok := SplitFilename(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("SplitFilename(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && (artist != tt.wantArtist || title != tt.wantTitle) {
				t.Errorf("SplitFilename(%q) = %q, %q", tt.path, artist, title)
			}
		})
	}
}
