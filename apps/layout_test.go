package apps

import "testing"

func TestLayout_PixelToQuery(t *testing.T) {
	l := NewLayout(600, 10)
	got := l.PixelToQuery(65, 125)
	want := Query{X: 1, Y: 2}
	if got != want {
		t.Errorf("PixelToQuery(65,125) = %+v, want %+v", got, want)
	}
}

func TestEncodeDecodeKey_RoundTrips(t *testing.T) {
	q := Query{X: 3, Y: 7}
	key := EncodeKey(q)
	got, err := DecodeKey(key)
	if err != nil {
		t.Fatalf("DecodeKey: %v", err)
	}
	if got != q {
		t.Errorf("round trip = %+v, want %+v", got, q)
	}
}

func TestDecodeKey_Malformed(t *testing.T) {
	if _, err := DecodeKey("not json"); err == nil {
		t.Error("expected error decoding malformed key")
	}
}

func TestLayout_Matrix(t *testing.T) {
	l := NewLayout(100, 10)
	keys := []string{EncodeKey(Query{X: 0, Y: 0}), EncodeKey(Query{X: 2, Y: 3})}
	m, err := l.Matrix(keys)
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	r, c := m.Dims()
	if r != 2 || c != 4 {
		t.Fatalf("Matrix dims = %d x %d, want 2x4", r, c)
	}
	// second row: x in [20,30), y in [30,40)
	if m.At(1, 0) != 20 || m.At(1, 1) != 30 || m.At(1, 2) != 30 || m.At(1, 3) != 40 {
		t.Errorf("Matrix row 1 = %v %v %v %v, want 20 30 30 40", m.At(1, 0), m.At(1, 1), m.At(1, 2), m.At(1, 3))
	}
}

func TestLayout_Matrix_BadKey(t *testing.T) {
	l := NewLayout(100, 10)
	if _, err := l.Matrix([]string{"garbage"}); err == nil {
		t.Error("expected error for undecodable key")
	}
}
