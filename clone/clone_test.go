package clone

import (
	"testing"
	"time"
)

func str(s string) *Value { return &Value{Kind: KindString, Str: s} }
func num(n float64) *Value { return &Value{Kind: KindNumber, Number: n} }

func TestClone_Primitives(t *testing.T) {
	cases := []*Value{
		{Kind: KindUndefined},
		{Kind: KindNull},
		{Kind: KindBool, Bool: true},
		num(42.5),
		str("hello"),
	}
	for _, v := range cases {
		got, err := Clone(v, nil)
		if err != nil {
			t.Fatalf("Clone(%+v): %v", v, err)
		}
		if got == v {
			t.Fatalf("clone shares identity with source for %+v", v)
		}
		if got.Kind != v.Kind || got.Bool != v.Bool || got.Number != v.Number || got.Str != v.Str {
			t.Fatalf("clone %+v != source %+v", got, v)
		}
	}
}

func TestClone_Cycle(t *testing.T) {
	a := NewObject()
	a.Set("x", num(1))
	a.Set("self", a)

	got, err := Clone(a, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == a {
		t.Fatalf("clone must not share identity with source")
	}
	if got.Fields["self"] != got {
		t.Fatalf("clone.self must === clone, got %p want %p", got.Fields["self"], got)
	}
	if got.Fields["x"].Number != 1 {
		t.Fatalf("clone.x = %v, want 1", got.Fields["x"].Number)
	}
}

func TestClone_ArrayOrderAndKeys(t *testing.T) {
	obj := NewObject()
	obj.Set("b", num(2))
	obj.Set("a", num(1))
	arr := &Value{Kind: KindArray, Elems: []*Value{num(1), str("two"), obj}}

	got, err := Clone(arr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Elems) != 3 {
		t.Fatalf("len = %d, want 3", len(got.Elems))
	}
	clonedObj := got.Elems[2]
	if clonedObj == obj {
		t.Fatalf("nested object identity shared with source")
	}
	if len(clonedObj.Keys) != 2 || clonedObj.Keys[0] != "b" || clonedObj.Keys[1] != "a" {
		t.Fatalf("own-enumerable key order not preserved: %v", clonedObj.Keys)
	}
}

func TestClone_DeepEquality(t *testing.T) {
	src := NewObject()
	src.Set("n", num(3))
	src.Set("list", &Value{Kind: KindArray, Elems: []*Value{str("a"), str("b")}})

	got, err := Clone(src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Fields["n"].Number != 3 {
		t.Fatalf("deep field mismatch")
	}
	list := got.Fields["list"]
	if len(list.Elems) != 2 || list.Elems[0].Str != "a" || list.Elems[1].Str != "b" {
		t.Fatalf("deep array mismatch: %+v", list)
	}
	if list == src.Fields["list"] {
		t.Fatalf("nested array shares identity with source")
	}
}

func TestClone_DateAndRegExp(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := &Value{Kind: KindDate, Time: now}
	got, err := Clone(d, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == d {
		t.Fatalf("date clone shares identity")
	}
	if !got.Time.Equal(now) {
		t.Fatalf("date value mismatch: %v", got.Time)
	}

	re := &Value{Kind: KindRegExp, Source: "a+", Flags: "gi"}
	got2, err := Clone(re, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got2 == re || got2.Source != "a+" || got2.Flags != "gi" {
		t.Fatalf("regexp clone mismatch: %+v", got2)
	}
}

func TestClone_DateSharedIdentityAcrossNonAncestors(t *testing.T) {
	// Mirrors the original Rust implementation: Date/RegExp/ArrayBuffer
	// identity stays in the visited set for the whole algorithm (not just
	// the ancestor chain), so two sibling references to the same Date
	// clone to the SAME object, preserving their shared identity.
	d := &Value{Kind: KindDate, Time: time.Unix(0, 0)}
	arr := &Value{Kind: KindArray, Elems: []*Value{d, d}}

	got, err := Clone(arr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Elems[0] != got.Elems[1] {
		t.Fatalf("sibling Date references should clone to the same object")
	}
}

func TestClone_MapAndSet(t *testing.T) {
	m := &Value{Kind: KindMap, Entries: []MapEntry{
		{Key: str("k1"), Val: num(1)},
		{Key: str("k2"), Val: num(2)},
	}}
	got, err := Clone(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindMap || len(got.Entries) != 2 {
		t.Fatalf("map clone mismatch: %+v", got)
	}
	if got.Entries[0].Key == m.Entries[0].Key {
		t.Fatalf("map key shares identity with source")
	}

	s := &Value{Kind: KindSet, Entries: []MapEntry{{Key: num(1)}, {Key: num(2)}}}
	got2, err := Clone(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got2.Kind != KindSet || len(got2.Entries) != 2 {
		t.Fatalf("set clone mismatch: %+v", got2)
	}
}

func TestClone_SelfReferencingMap(t *testing.T) {
	m := &Value{Kind: KindMap}
	m.Entries = []MapEntry{{Key: str("self"), Val: m}}

	got, err := Clone(m, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Entries[0].Val != got {
		t.Fatalf("self-referencing map must clone to a map containing itself")
	}
}

func TestClone_ErrorTreatedAsObject(t *testing.T) {
	e := &Value{Kind: KindError}
	e.Set("message", str("boom"))
	e.Set("code", num(7))

	got, err := Clone(e, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != KindError {
		t.Fatalf("clone kind = %v, want KindError", got.Kind)
	}
	if got.Fields["message"].Str != "boom" || got.Fields["code"].Number != 7 {
		t.Fatalf("error own properties not cloned: %+v", got.Fields)
	}
}

func TestClone_ArrayBuffer(t *testing.T) {
	buf := &Value{Kind: KindArrayBuffer, Buffer: []byte{1, 2, 3}}
	got, err := Clone(buf, nil)
	if err != nil {
		t.Fatal(err)
	}
	if &got.Buffer[0] == &buf.Buffer[0] {
		t.Fatalf("array buffer clone must not share backing memory")
	}
	if string(got.Buffer) != string(buf.Buffer) {
		t.Fatalf("array buffer contents mismatch")
	}
}

func TestClone_Transfer(t *testing.T) {
	buf := &Value{Kind: KindArrayBuffer, Buffer: []byte{9, 8, 7}}
	owner := NewObject()
	owner.Set("buf", buf)

	transfer := TransferSet{buf: true}
	got, err := Clone(owner, transfer)
	if err != nil {
		t.Fatal(err)
	}

	clonedBuf := got.Fields["buf"]
	if string(clonedBuf.Buffer) != "\x09\x08\x07" {
		t.Fatalf("transferred buffer contents mismatch: %v", clonedBuf.Buffer)
	}
	if !buf.Detached {
		t.Fatalf("source buffer must be detached after transfer")
	}
	if buf.Buffer != nil {
		t.Fatalf("detached source buffer must not retain its backing array")
	}
}

func TestClone_TypedArrayView(t *testing.T) {
	backing := &Value{Kind: KindArrayBuffer, Buffer: []byte{10, 20, 30, 40}}
	view := &Value{Kind: KindTypedArray, ViewCtor: "Uint8Array", ViewBuffer: backing, ByteOffset: 1, ByteLength: 2}

	got, err := Clone(view, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.ViewCtor != "Uint8Array" || got.ByteLength != 2 {
		t.Fatalf("typed array geometry mismatch: %+v", got)
	}
	if got.ViewBuffer.Buffer[0] != 20 || got.ViewBuffer.Buffer[1] != 30 {
		t.Fatalf("typed array contents mismatch: %v", got.ViewBuffer.Buffer)
	}
}
