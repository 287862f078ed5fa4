package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stevetsa/Chiron/internal/job"
)

func writeList(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestMergeReadLists_Both(t *testing.T) {
	pairedList = writeList(t, "paired.txt", "/r/s1_1.fq\n/r/s1_2.fq\n")
	unpairedList = writeList(t, "unpaired.txt", "/r/s2.fq\n")
	t.Cleanup(func() { pairedList, unpairedList = "", "" })

	merged, err := mergeReadLists(job.Document{"threads": 8})
	if err != nil {
		t.Fatalf("mergeReadLists: %v", err)
	}

	paired, ok := merged["paired_reads"].([]job.FileRef)
	if !ok || len(paired) != 2 {
		t.Fatalf("paired_reads = %#v, want 2 File refs", merged["paired_reads"])
	}
	if paired[0].Path != "/r/s1_1.fq" || paired[1].Path != "/r/s1_2.fq" {
		t.Errorf("paired_reads order wrong: %#v", paired)
	}

	unpaired, ok := merged["unpaired_reads"].([]job.FileRef)
	if !ok || len(unpaired) != 1 {
		t.Fatalf("unpaired_reads = %#v, want 1 File ref", merged["unpaired_reads"])
	}
	if merged["threads"] != 8 {
		t.Errorf("pre-existing key changed: %#v", merged)
	}
}

func TestMergeReadLists_UnsuppliedKeysAbsent(t *testing.T) {
	pairedList = writeList(t, "paired.txt", "/r/a.fq\n")
	unpairedList = ""
	t.Cleanup(func() { pairedList = "" })

	merged, err := mergeReadLists(job.Document{})
	if err != nil {
		t.Fatalf("mergeReadLists: %v", err)
	}

	if _, ok := merged["unpaired_reads"]; ok {
		t.Error("unpaired_reads must be absent when no list file is given")
	}
	if _, ok := merged["paired_reads"]; !ok {
		t.Error("paired_reads missing")
	}
}

func TestMergeReadLists_MissingListFile(t *testing.T) {
	pairedList = filepath.Join(t.TempDir(), "absent.txt")
	unpairedList = ""
	t.Cleanup(func() { pairedList = "" })

	if _, err := mergeReadLists(job.Document{}); err == nil {
		t.Fatal("expected error for missing list file")
	}
}
