package memory

import "testing"

func Test_CapacityTier_01(t *testing.T) {
	cases := []struct {
		n    uint32
		tier uint32
	}{
		{0, 4},
		{1, 4},
		{4, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{16, 16},
		{17, 32},
		{1000, 1024},
	}

	for _, c := range cases {
		if got := CapacityTier(c.n); got != c.tier {
			t.Errorf("CapacityTier(%d) = %d, want %d", c.n, got, c.tier)
		}
	}
}

func Test_Align8_01(t *testing.T) {
	cases := []struct{ in, out uint32 }{
		{0, 0}, {1, 8}, {7, 8}, {8, 8}, {9, 16},
	}

	for _, c := range cases {
		if got := Align8(c.in); got != c.out {
			t.Errorf("Align8(%d) = %d, want %d", c.in, got, c.out)
		}
	}
}

func Test_Pointer_RoundTrip_01(t *testing.T) {
	bits := MkPtr(PtrString, 7, 128)

	if !IsPointer(bits) {
		t.Fatalf("expected %x to be a pointer", bits)
	}

	if got := PtrTypeOf(bits); got != PtrString {
		t.Errorf("PtrTypeOf = %v, want %v", got, PtrString)
	}

	if got := PtrAuxOf(bits); got != 7 {
		t.Errorf("PtrAuxOf = %d, want 7", got)
	}

	if got := PtrOffsetOf(bits); got != 128 {
		t.Errorf("PtrOffsetOf = %d, want 128", got)
	}
}

func Test_Pointer_NotPointer_01(t *testing.T) {
	if IsPointer(QuietNaNBits) {
		t.Fatalf("a payload-free quiet NaN must not be treated as a pointer")
	}

	if IsPointer(0) {
		t.Fatalf("zero must not be treated as a pointer")
	}
}

func Test_PrimitiveClosure_01(t *testing.T) {
	got := Closure([]string{"strcat"})

	want := map[string]bool{
		"strcat": true, "sso_to_heap": true, "str_len": true, "alloc": true,
		"ptr_with_id": true, "ptr_offset": true, "mem_copy16": true,
		"cap_for_len": true, "align8": true, "mkptr": true, "ptr_aux": true,
		"ptr_type": true,
	}

	seen := map[string]bool{}
	for _, name := range got {
		seen[name] = true
	}

	for name := range want {
		if !seen[name] {
			t.Errorf("Closure(strcat) missing dependency %q", name)
		}
	}

	// Every dependency must appear before the primitive that needs it.
	index := map[string]int{}
	for i, name := range got {
		index[name] = i
	}

	if index["alloc"] > index["strcat"] {
		t.Errorf("alloc must be emitted before strcat")
	}
}
