package catalog

import (
	"reflect"
	"testing"
	"time"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMerge_UnionsSourcesAndExtendsDates(t *testing.T) {
	c := New()
	c.Merge([]Observation{{Artist: "Medina", Title: "Kun For Mig", Sources: []string{"NOVA"}}}, day("2025-01-01"))
	c.Merge([]Observation{{Artist: "Medina", Title: "Kun For Mig", Sources: []string{"P3"}}}, day("2025-01-08"))

	row, ok := c.Get("medina - kun for mig")
	if !ok {
		t.Fatal("row missing after merge")
	}
	if got := row.SourcesString(); got != "NOVA, P3" {
		t.Errorf("Sources = %q, want %q", got, "NOVA, P3")
	}
	if !row.FirstSeen.Equal(day("2025-01-01")) {
		t.Errorf("FirstSeen = %v, want 2025-01-01", row.FirstSeen)
	}
	if !row.LastSeen.Equal(day("2025-01-08")) {
		t.Errorf("LastSeen = %v, want 2025-01-08", row.LastSeen)
	}
}

func TestMerge_GrowOnly(t *testing.T) {
	c := New()
	runs := []struct {
		date    string
		sources []string
		bpm     string
		key     string
	}{
		{date: "2025-03-10", sources: []string{"P3"}},
		{date: "2025-03-01", sources: []string{"NOVA"}, bpm: "124"},
		{date: "2025-03-05", sources: nil, bpm: "99", key: "8A"},
		{date: "2025-03-20", sources: []string{"P3", "Radio 100"}, key: "1B"},
	}

	var prev Row
	for i, run := range runs {
		c.Merge([]Observation{{
			Artist:  "Blæst",
			Title:   "Elsker Dig Så Meget (Radio Edit)",
			Sources: run.sources,
			BPM:     run.bpm,
			Key:     run.key,
		}}, day(run.date))

		row, ok := c.Get("blæst - elsker dig så meget")
		if !ok {
			t.Fatalf("run %d: row missing", i)
		}
		if row.FirstSeen.After(row.LastSeen) {
			t.Errorf("run %d: FirstSeen %v after LastSeen %v", i, row.FirstSeen, row.LastSeen)
		}
		if i > 0 {
			if row.FirstSeen.After(prev.FirstSeen) {
				t.Errorf("run %d: FirstSeen moved later", i)
			}
			if row.LastSeen.Before(prev.LastSeen) {
				t.Errorf("run %d: LastSeen moved earlier", i)
			}
			for _, s := range prev.Sources {
				if !contains(row.Sources, s) {
					t.Errorf("run %d: source %q dropped", i, s)
				}
			}
			if prev.BPM != "" && row.BPM != prev.BPM {
				t.Errorf("run %d: BPM overwritten %q -> %q", i, prev.BPM, row.BPM)
			}
			if prev.Key != "" && row.Key != prev.Key {
				t.Errorf("run %d: Key overwritten %q -> %q", i, prev.Key, row.Key)
			}
		}
		prev = row
	}

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if prev.BPM != "124" || prev.Key != "8A" {
		t.Errorf("final BPM/Key = %q/%q, want 124/8A", prev.BPM, prev.Key)
	}
	if got := prev.SourcesString(); got != "NOVA, P3, Radio 100" {
		t.Errorf("final Sources = %q", got)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	obs := []Observation{
		{Artist: "Medina", Title: "Kun For Mig", Sources: []string{"NOVA", "P3"}, BPM: "124"},
		{Artist: "Blæst", Title: "Elsker Dig", Sources: []string{"P3"}},
		{Artist: "", Title: "Untitled", Sources: []string{"P4"}},
	}

	once := New()
	once.Merge(obs, day("2025-02-01"))

	twice := New()
	twice.Merge(obs, day("2025-02-01"))
	twice.Merge(obs, day("2025-02-01"))

	if !reflect.DeepEqual(once.Rows(), twice.Rows()) {
		t.Errorf("repeat merge changed catalog:\n%+v\n%+v", once.Rows(), twice.Rows())
	}
}

func TestMerge_SkipsEmptyAndOrdersRows(t *testing.T) {
	c := New()
	stats := c.Merge([]Observation{
		{Artist: "B", Title: "Old", Sources: []string{"P3"}},
		{Artist: " ", Title: " "},
	}, day("2025-01-01"))
	if stats.Skipped != 1 || stats.Added != 1 {
		t.Errorf("stats = %+v, want 1 added 1 skipped", stats)
	}

	stats = c.Merge([]Observation{
		{Artist: "B", Title: "New", Sources: []string{"P3"}},
		{Artist: "A", Title: "New", Sources: []string{"P3"}},
		{Artist: "b", Title: "OLD", Sources: []string{"NOVA"}},
	}, day("2025-01-02"))
	if stats.Added != 2 || stats.Updated != 1 {
		t.Errorf("stats = %+v, want 2 added 1 updated", stats)
	}

	rows := c.Rows()
	var got []string
	for _, r := range rows {
		got = append(got, r.Artist+"/"+r.Title)
	}
	want := []string{"A/New", "B/New", "B/Old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("row order = %v, want %v", got, want)
	}
}

func TestSources(t *testing.T) {
	if got := ParseSources("P3, NOVA,, P3 "); !reflect.DeepEqual(got, []string{"NOVA", "P3"}) {
		t.Errorf("ParseSources() = %v", got)
	}
	if got := UnionSources([]string{"P3"}, []string{"NOVA", " ", "P3"}); !reflect.DeepEqual(got, []string{"NOVA", "P3"}) {
		t.Errorf("UnionSources() = %v", got)
	}
	if got := JoinSources([]string{"NOVA", "P3"}); got != "NOVA, P3" {
		t.Errorf("JoinSources() = %q", got)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
