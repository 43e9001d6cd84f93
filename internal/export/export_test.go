package export

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-radio-catalog/internal/resolver"
	"github.com/justestif/go-radio-catalog/internal/track"
)

func local(artist, title, path string) resolver.Match {
	return resolver.Match{Row: track.Row{Artist: artist, Title: title}, Path: path, Score: 100}
}

func remote(artist, title, id string) resolver.Match {
	return resolver.Match{Row: track.Row{Artist: artist, Title: title}, ReferenceID: id}
}

func missing(artist, title string) resolver.Match {
	return resolver.Match{Row: track.Row{Artist: artist, Title: title}}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeReplace, false},
		{"replace", ModeReplace, false},
		{"ADD", ModeAdd, false},
		{" save_as_new ", ModeSaveAsNew, false},
		{"merge", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownMode) {
					t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseMode(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("both")
	if err != nil || len(got) != 2 {
		t.Errorf("ParseFormats(both) = %v, %v", got, err)
	}
	got, err = ParseFormats("m3u8")
	if err != nil || !reflect.DeepEqual(got, []Format{FormatM3U8}) {
		t.Errorf("ParseFormats(m3u8) = %v, %v", got, err)
	}
	if _, err := ParseFormats("pls"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormats(pls) error = %v", err)
	}
}

func TestBuildSongPaths(t *testing.T) {
	matches := []resolver.Match{
		local("Medina", "Kun For Mig", "/music/medina.mp3"),
		remote("Blæst", "Elsker Dig", "td123"),
		missing("Tessa", "Lov Mig "),
	}

	tests := []struct {
		name    string
		generic bool
		want    []string
	}{
		{
			name: "missing omitted",
			want: []string{"/music/medina.mp3", "netsearch://td123"},
		},
		{
			name:    "generic search substituted",
			generic: true,
			want:    []string{"/music/medina.mp3", "netsearch://td123", "search://Tessa/Lov Mig/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSongPaths(matches, tt.generic)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildSongPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildM3UEntries(t *testing.T) {
	got := BuildM3UEntries([]resolver.Match{
		local("Medina", "Kun For Mig", "/music/medina.mp3"),
		remote("Blæst", "Elsker Dig", "td123"),
		missing("Tessa", "Lov Mig"),
	})
	want := []M3UEntry{{Display: "Medina - Kun For Mig", Path: "/music/medina.mp3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildM3UEntries() = %+v, want %+v", got, want)
	}
}

func TestEscapeAttr(t *testing.T) {
	got := EscapeAttr(`/music/Tom & "Jerry" <live>.mp3`)
	want := "/music/Tom &amp; &quot;Jerry&quot; &lt;live&gt;.mp3"
	if got != want {
		t.Errorf("EscapeAttr() = %q, want %q", got, want)
	}
}

func TestVDJFolder_Replace(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	if err := os.WriteFile(filepath.Join(dir, "Hits.vdjfolder"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := e.VDJFolder("Hits", []resolver.Match{
		local("Tom & Jerry", "Song", "/music/Tom & Jerry - Song.mp3"),
		remote("Blæst", "Elsker Dig", "td123"),
		missing("Tessa", "Lov Mig"),
	}, Options{Mode: ModeReplace})
	if err != nil {
		t.Fatalf("VDJFolder() error = %v", err)
	}
	if path != filepath.Join(dir, "Hits.vdjfolder") {
		t.Errorf("path = %q", path)
	}

	got, _ := os.ReadFile(path)
	want := "<VirtualFolder>\n" +
		"  <song path=\"/music/Tom &amp; Jerry - Song.mp3\" />\n" +
		"  <song path=\"netsearch://td123\" />\n" +
		"</VirtualFolder>\n"
	if string(got) != want {
		t.Errorf("content =\n%s\nwant\n%s", got, want)
	}
}

func TestVDJFolder_Add(t *testing.T) {
	dir := t.TempDir()
	e := New(dir)

	first := []resolver.Match{
		local("Tom & Jerry", "Song", "/music/Tom & Jerry - Song.mp3"),
		remote("Blæst", "Elsker Dig", "td123"),
	}
	if _, err := e.VDJFolder("Hits", first, Options{}); err != nil {
		t.Fatal(err)
	}

	second := []resolver.Match{
		local("New", "One", "/music/new.mp3"),
		local("Tom & Jerry", "Song", "/music/Tom & Jerry - Song.mp3"),
		remote("Blæst", "Elsker Dig", "td123"),
		remote("Other", "Two", "td456"),
	}
	path, err := e.VDJFolder("Hits", second, Options{Mode: ModeAdd})
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ParseVDJFolderPaths(f)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"/music/Tom & Jerry - Song.mp3",
		"netsearch://td123",
		"/music/new.mp3",
		"netsearch://td456",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestVDJFolder_AddWithoutExistingFile(t *testing.T) {
	dir := t.TempDir()
	path, err := New(dir).VDJFolder("Fresh", []resolver.Match{remote("A", "B", "td1")}, Options{Mode: ModeAdd})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if !strings.Contains(string(got), `<song path="netsearch://td1" />`) {
		t.Errorf("content = %q", got)
	}
}

func TestVDJFolder_SaveAsNew(t *testing.T) {
	tests := []struct {
		name    string
		newName string
		want    string
	}{
		{name: "named", newName: "Hits Copy", want: "Hits Copy.vdjfolder"},
		{name: "blank falls back", newName: "  ", want: "Hits.vdjfolder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path, err := New(dir).VDJFolder("Hits", []resolver.Match{remote("A", "B", "td1")},
				Options{Mode: ModeSaveAsNew, NewName: tt.newName})
			if err != nil {
				t.Fatal(err)
			}
			if filepath.Base(path) != tt.want {
				t.Errorf("path = %q, want base %q", path, tt.want)
			}
		})
	}
}

func TestExport_UnknownMode(t *testing.T) {
	dir := t.TempDir()
	_, err := New(dir).Export(FormatM3U8, "Hits", nil, Options{Mode: "merge"})
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("error = %v, want ErrUnknownMode", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("unexpected files written: %v", entries)
	}
}

func TestM3U8_Replace(t *testing.T) {
	dir := t.TempDir()
	path, err := New(dir).M3U8("Hits", []resolver.Match{
		local("Medina", "Kun For Mig", "/music/medina.mp3"),
		remote("Blæst", "Elsker Dig", "td123"),
	}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	want := "#EXTM3U\n#EXTINF:-1,Medina - Kun For Mig\n/music/medina.mp3\n"
	if string(got) != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestM3U8_AddAppendsOnlyNewEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hits.m3u8")
	existing := "#EXTM3U\n" +
		"#EXTINF:-1,A - One\n/music/a.mp3\n" +
		"#EXTINF:-1,B - Two\n/music/b.mp3\n" +
		"#EXTINF:-1,C - Three\n/music/c.mp3"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	matches := []resolver.Match{
		local("D", "Four", "/music/d.mp3"),
		local("B", "Two", "/music/b.mp3"),
		local("E", "Five", "/music/e.mp3"),
		local("A", "One", "/music/a.mp3"),
		local("F", "Six", "/music/f.mp3"),
	}
	if _, err := New(dir).M3U8("Hits", matches, Options{Mode: ModeAdd}); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(got), existing+"\n") {
		t.Errorf("existing content not preserved:\n%s", got)
	}
	paths := ParseM3UPaths(string(got))
	want := []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3", "/music/d.mp3", "/music/e.mp3", "/music/f.mp3"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestM3U8_AddNothingNewLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Hits.m3u8")
	existing := "#EXTM3U\n# custom note\n#EXTINF:-1,A - One\n/music/a.mp3\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := New(dir).M3U8("Hits", []resolver.Match{local("A", "One", "/music/a.mp3")}, Options{Mode: ModeAdd}); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Errorf("file was rewritten: mtime %v, want %v", info.ModTime(), old)
	}
	got, _ := os.ReadFile(path)
	if string(got) != existing {
		t.Errorf("content changed: %q", got)
	}
}
