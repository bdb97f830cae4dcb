package apps

import (
	"testing"

	"github.com/blockcast/blockcast/core"
)

func TestGalleryApp_GetBlocksByIndex_FakeBlockMode(t *testing.T) {
	g := &GalleryApp{
		catalog:    core.QueryCatalog{Keys: []string{EncodeKey(Query{X: 0, Y: 0})}, BlocksPerQuery: []uint32{5}},
		blockSize:  1024,
		maxBlocks:  5,
		fakeBlocks: FakeBlockMode{UseMahimahi: true},
	}

	envs, err := g.GetBlocksByIndex(0, 1, 2)
	if err != nil {
		t.Fatalf("GetBlocksByIndex: %v", err)
	}
	if len(envs) != 1 {
		t.Fatalf("len(envs) = %d, want 1", len(envs))
	}
	env := envs[0]
	if env.BlockID != 2 {
		t.Errorf("BlockID = %d, want 2 (== incache)", env.BlockID)
	}
	if env.TotalBlocks != 5 {
		t.Errorf("TotalBlocks = %d, want 5", env.TotalBlocks)
	}
	if len(env.Payload) != 1024 {
		t.Errorf("Payload len = %d, want 1024", len(env.Payload))
	}
	for _, b := range env.Payload {
		if b != 0 {
			t.Fatalf("fake block payload not zero-filled: %v", env.Payload)
		}
	}
}

func TestGalleryApp_GetBlocksByIndex_FakeBlockMode_PastMax(t *testing.T) {
	g := &GalleryApp{
		catalog:    core.QueryCatalog{Keys: []string{EncodeKey(Query{X: 0, Y: 0})}, BlocksPerQuery: []uint32{5}},
		blockSize:  64,
		maxBlocks:  5,
		fakeBlocks: FakeBlockMode{UseNetem: true},
	}

	if _, err := g.GetBlocksByIndex(0, 1, 6); err != core.ErrNoBlocks {
		t.Errorf("err = %v, want core.ErrNoBlocks", err)
	}
}

func TestFakeBlockMode_Enabled(t *testing.T) {
	cases := []struct {
		mode FakeBlockMode
		want bool
	}{
		{FakeBlockMode{}, false},
		{FakeBlockMode{UseMahimahi: true}, true},
		{FakeBlockMode{UseNetem: true}, true},
	}
	for _, c := range cases {
		if got := c.mode.Enabled(); got != c.want {
			t.Errorf("FakeBlockMode(%+v).Enabled() = %v, want %v", c.mode, got, c.want)
		}
	}
}
