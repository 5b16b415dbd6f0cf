package storage

import (
	"errors"
	"sort"
	"testing"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	file, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("file storage init failed: %v", err)
	}
	return map[string]Storage{
		"memory": NewInMemory(),
		"file":   file,
	}
}

func TestStorageRoundtrip(t *testing.T) {
	for name, st := range backends(t) {
		if err := st.Set("wallet/key1abc", []byte("record")); err != nil {
			t.Fatalf("%s: set failed: %v", name, err)
		}
		got, err := st.Get("wallet/key1abc")
		if err != nil {
			t.Fatalf("%s: get failed: %v", name, err)
		}
		if string(got) != "record" {
			t.Fatalf("%s: unexpected value %q", name, got)
		}
	}
}

func TestStorageGetMissing(t *testing.T) {
	for name, st := range backends(t) {
		if _, err := st.Get("absent"); !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("%s: expected ErrKeyNotFound, got %v", name, err)
		}
	}
}

func TestStorageLastWriteWins(t *testing.T) {
	for name, st := range backends(t) {
		if err := st.Set("k", []byte("one")); err != nil {
			t.Fatalf("%s: set failed: %v", name, err)
		}
		if err := st.Set("k", []byte("two")); err != nil {
			t.Fatalf("%s: set failed: %v", name, err)
		}
		got, err := st.Get("k")
		if err != nil || string(got) != "two" {
			t.Fatalf("%s: expected last write, got %q / %v", name, got, err)
		}
	}
}

func TestStorageRemoveAndFind(t *testing.T) {
	for name, st := range backends(t) {
		for _, k := range []string{"acct/main", "acct/backup", "other"} {
			if err := st.Set(k, []byte("v")); err != nil {
				t.Fatalf("%s: set failed: %v", name, err)
			}
		}
		found, err := st.FindKey("acct/")
		if err != nil {
			t.Fatalf("%s: find failed: %v", name, err)
		}
		sort.Strings(found)
		if len(found) != 2 || found[0] != "acct/backup" || found[1] != "acct/main" {
			t.Fatalf("%s: unexpected find result %v", name, found)
		}

		if err := st.Remove("acct/main"); err != nil {
			t.Fatalf("%s: remove failed: %v", name, err)
		}
		// Removing an absent key is not an error.
		if err := st.Remove("acct/main"); err != nil {
			t.Fatalf("%s: repeated remove failed: %v", name, err)
		}
		if _, err := st.Get("acct/main"); !errors.Is(err, ErrKeyNotFound) {
			t.Fatalf("%s: expected ErrKeyNotFound after remove, got %v", name, err)
		}

		if err := st.RemoveAll(); err != nil {
			t.Fatalf("%s: removeAll failed: %v", name, err)
		}
		keys, err := st.AllKeys()
		if err != nil {
			t.Fatalf("%s: allKeys failed: %v", name, err)
		}
		if len(keys) != 0 {
			t.Fatalf("%s: expected empty storage, got %v", name, keys)
		}
	}
}

func TestFileStorageSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFile(dir)
	if err != nil {
		t.Fatalf("file storage init failed: %v", err)
	}
	if err := st.Set("persisted", []byte("value")); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	reopened, err := NewFile(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.Get("persisted")
	if err != nil || string(got) != "value" {
		t.Fatalf("expected persisted value, got %q / %v", got, err)
	}
	keys, err := reopened.AllKeys()
	if err != nil || len(keys) != 1 || keys[0] != "persisted" {
		t.Fatalf("unexpected keys %v / %v", keys, err)
	}
}
