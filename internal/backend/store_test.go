package backend

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutGetRoundTrips(t *testing.T) {
	s := openTestStore(t)
	blocks := []ImageBlock{
		{BlockID: 0, Content: []byte("coarse")},
		{BlockID: 1, Content: []byte("refined")},
	}
	if err := s.Put("tile-0-0", blocks); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("tile-0-0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 2 || string(got[0].Content) != "coarse" || string(got[1].Content) != "refined" {
		t.Errorf("Get round trip = %+v, want matching blocks", got)
	}
}

func TestStore_GetMissingKey(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get("nope"); err != ErrKeyNotFound {
		t.Errorf("Get missing key: err = %v, want ErrKeyNotFound", err)
	}
}

func TestStore_CollectBlocksPerQuery(t *testing.T) {
	s := openTestStore(t)
	_ = s.Put("a", []ImageBlock{{BlockID: 0, Content: []byte("x")}})
	_ = s.Put("b", []ImageBlock{{BlockID: 0, Content: []byte("x")}, {BlockID: 1, Content: []byte("y")}})

	keys, counts, err := s.CollectBlocksPerQuery()
	if err != nil {
		t.Fatalf("CollectBlocksPerQuery: %v", err)
	}
	if len(keys) != 2 || len(counts) != 2 {
		t.Fatalf("got %d keys, %d counts, want 2 and 2", len(keys), len(counts))
	}
	total := counts[0] + counts[1]
	if total != 3 {
		t.Errorf("total block count = %d, want 3", total)
	}
}

func TestStore_PutOverwrites(t *testing.T) {
	s := openTestStore(t)
	_ = s.Put("k", []ImageBlock{{BlockID: 0, Content: []byte("first")}})
	_ = s.Put("k", []ImageBlock{{BlockID: 0, Content: []byte("second")}})

	got, err := s.Get("k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || string(got[0].Content) != "second" {
		t.Errorf("Get after overwrite = %+v, want single 'second' block", got)
	}
}
