package journalctl

import (
	"testing"

	"github.com/getong/leveled/internal/compaction"
)

func TestGetManifest_ReturnsCopy(t *testing.T) {
	orig := []compaction.ManifestEntry{
		{LowSQN: 1, Filename: "a.cdb", Handle: "a.cdb"},
		{LowSQN: 2, Filename: "b.cdb", Handle: "b.cdb"},
	}
	c := New(orig, nil)

	got, err := c.GetManifest()
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	got[0].Filename = "mutated"

	again, err := c.GetManifest()
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if again[0].Filename != "a.cdb" {
		t.Fatalf("GetManifest leaked its internal slice: got %q", again[0].Filename)
	}
}

func TestUpdateManifest_SplicesAtConsumedPosition(t *testing.T) {
	c := New([]compaction.ManifestEntry{
		{LowSQN: 5, Filename: "tip.cdb", Handle: "tip.cdb"},
		{LowSQN: 1, Filename: "a.cdb", Handle: "a.cdb"},
		{LowSQN: 3, Filename: "b.cdb", Handle: "b.cdb"},
	}, nil)

	sqn1, err := c.UpdateManifest(
		[]compaction.ManifestEntry{{LowSQN: 1, Filename: "merged.cdb", Handle: "merged.cdb"}},
		[]compaction.ConsumedFile{{LowSQN: 1, Filename: "a.cdb"}, {LowSQN: 3, Filename: "b.cdb"}},
	)
	if err != nil {
		t.Fatalf("UpdateManifest: %v", err)
	}
	if sqn1 != 1 {
		t.Fatalf("manifest_sqn = %d, want 1", sqn1)
	}

	manifest, err := c.GetManifest()
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	want := []string{"tip.cdb", "merged.cdb"}
	if len(manifest) != len(want) {
		t.Fatalf("manifest = %+v, want filenames %v", manifest, want)
	}
	for i, name := range want {
		if manifest[i].Filename != name {
			t.Errorf("manifest[%d].Filename = %q, want %q", i, manifest[i].Filename, name)
		}
	}

	sqn2, err := c.UpdateManifest(nil, nil)
	if err != nil {
		t.Fatalf("UpdateManifest: %v", err)
	}
	if sqn2 != 2 {
		t.Fatalf("manifest_sqn after second update = %d, want 2 (monotonic)", sqn2)
	}
}

func TestCompactionComplete_InvokesCallback(t *testing.T) {
	c := New(nil, nil)
	var got compaction.JobStats
	called := false
	c.OnCompactionComplete(func(stats compaction.JobStats) {
		called = true
		got = stats
	})

	c.CompactionComplete(compaction.JobStats{RecordsKept: 7})
	if !called {
		t.Fatal("OnCompactionComplete callback was not invoked")
	}
	if got.RecordsKept != 7 {
		t.Fatalf("callback received RecordsKept = %d, want 7", got.RecordsKept)
	}

	last, ok := c.LastStats()
	if !ok || last.RecordsKept != 7 {
		t.Fatalf("LastStats = %+v, %v; want {RecordsKept:7}, true", last, ok)
	}
}

func TestFindEntry(t *testing.T) {
	c := New([]compaction.ManifestEntry{
		{LowSQN: 1, Filename: "a.cdb", Handle: "a.cdb"},
	}, nil)

	entry, err := c.FindEntry("a.cdb")
	if err != nil || entry.LowSQN != 1 {
		t.Fatalf("FindEntry(a.cdb) = %+v, %v; want LowSQN 1, nil", entry, err)
	}

	if _, err := c.FindEntry("missing.cdb"); err != ErrNotFound {
		t.Fatalf("FindEntry(missing.cdb) err = %v, want ErrNotFound", err)
	}
}
