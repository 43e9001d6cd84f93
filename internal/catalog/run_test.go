package catalog

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestReadRunTable(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		defaultSource string
		want          []Observation
	}{
		{
			name:  "combined track column",
			input: "Track,Repeats,Stations,Station_Count\nMedina - Kun For Mig,5,\"NOVA, P3\",2\nUntitled Jingle,1,P4,1\n",
			want: []Observation{
				{Artist: "Medina", Title: "Kun For Mig", Sources: []string{"NOVA", "P3"}, Repeats: 5},
				{Artist: "", Title: "Untitled Jingle", Sources: []string{"P4"}, Repeats: 1},
			},
		},
		{
			name:          "artist title columns with default source",
			input:         "Artist,Title,BPM,Key\nBlæst,Elsker Dig,124.0,8a\n",
			defaultSource: "NOVA",
			want: []Observation{
				{Artist: "Blæst", Title: "Elsker Dig", Sources: []string{"NOVA"}, Repeats: 1, BPM: "124", Key: "8A"},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadRunTable(strings.NewReader(tt.input), tt.defaultSource)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadRunTable() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadRunTable_NoTrackColumn(t *testing.T) {
	_, err := ReadRunTable(strings.NewReader("Song,Plays\nx,1\n"), "")
	if !errors.Is(err, ErrNoTrackColumn) {
		t.Errorf("error = %v, want ErrNoTrackColumn", err)
	}
}

func TestConsolidate(t *testing.T) {
	obs := []Observation{
		{Artist: "Medina", Title: "Kun For Mig", Sources: []string{"NOVA"}, Repeats: 2},
		{Artist: "Blæst", Title: "Elsker Dig", Sources: []string{"P3"}, Repeats: 3},
		{Artist: "medina", Title: "Kun For Mig (Radio Edit)", Sources: []string{"P3"}, Repeats: 1, BPM: "124"},
		{Artist: "Alpha", Title: "Song", Sources: []string{"P4"}, Repeats: 3},
		{Artist: "", Title: "", Sources: []string{"P4"}, Repeats: 9},
	}

	got := Consolidate(obs)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}

	var order []string
	for _, o := range got {
		order = append(order, o.Artist+" - "+o.Title)
	}
	want := []string{"Medina - Kun For Mig", "Alpha - Song", "Blæst - Elsker Dig"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
	if got[0].Repeats != 3 || JoinSources(got[0].Sources) != "NOVA, P3" || got[0].BPM != "124" {
		t.Errorf("aggregated row = %+v", got[0])
	}
}

func TestWriteRunTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRunTable(&buf, []Observation{
		{Artist: "Medina", Title: "Kun For Mig", Sources: []string{"NOVA", "P3"}, Repeats: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "Track,Repeats,Stations,Station_Count\nMedina - Kun For Mig,3,\"NOVA, P3\",2\n"
	if buf.String() != want {
		t.Errorf("WriteRunTable() = %q, want %q", buf.String(), want)
	}

	back, err := ReadRunTable(&buf, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].Repeats != 3 || back[0].Artist != "Medina" {
		t.Errorf("ReadRunTable(WriteRunTable()) = %+v", back)
	}
}
