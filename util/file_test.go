package util

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("step\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "A_ep10.csv", "A_ep9.csv", "notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "sub.csv"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "A_ep9.csv"), filepath.Join(dir, "A_ep10.csv")}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	if Stem(files[0]) != "A_ep9" {
		t.Errorf("unexpected stem %s", Stem(files[0]))
	}
}

func TestListFilesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "B_ep10.csv", "B_ep2.csv", "B_ep0.csv", "B_ep1.csv", "B_ep11.csv")
	files, err := ListFiles(dir, ".csv")
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(files))
	for i, f := range files {
		got[i] = Stem(f)
	}
	want := []string{"B_ep0", "B_ep1", "B_ep2", "B_ep10", "B_ep11"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRemoveFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "A_ep0.csv", "A_ep1.csv", "notes.txt")
	if err := RemoveFiles(dir, ".csv"); err != nil {
		t.Fatal(err)
	}
	files, _ := ListFiles(dir, ".csv")
	if len(files) != 0 || !Exists(filepath.Join(dir, "notes.txt")) {
		t.Fatalf("left %v", files)
	}
	if err := RemoveFiles(filepath.Join(dir, "missing"), ".csv"); err != nil {
		t.Fatalf("missing dir: %v", err)
	}
}
