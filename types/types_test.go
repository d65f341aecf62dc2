package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var amd64 = &TargetInfo{PointerSize: 8, MaxAlign: 8, LittleEndian: true}

func TestBasicSizes(t *testing.T) {
	assert.Equal(t, int64(1), NewBasic(Bool, "bool").Size(amd64))
	assert.Equal(t, int64(4), NewBasic(Int32, "i32").Size(amd64))
	assert.Equal(t, int64(8), NewBasic(Uint64, "u64").Size(amd64))
	assert.Equal(t, int64(8), NewBasic(Rawptr, "rawptr").Size(amd64))
	assert.Equal(t, int64(16), NewBasic(String, "string").Size(amd64), "string is a {ptr, len} pair")
}

func TestCompositeSizes(t *testing.T) {
	i32 := NewBasic(Int32, "i32")
	i64 := NewBasic(Int64, "i64")

	assert.Equal(t, int64(8), (&Pointer{Elem: i32}).Size(amd64))
	assert.Equal(t, int64(24), (&Slice{Elem: i32}).Size(amd64), "slice is {ptr, len, cap}")
	assert.Equal(t, int64(16), (&Array{Elem: i32, Len: 4}).Size(amd64))
	assert.Equal(t, int64(16), (&Vector{Elem: i32, Lanes: 4}).Size(amd64))

	st := &Struct{
		Name: "pair",
		Fields: []Field{
			{Name: "a", Type: i32, Offset: 0},
			{Name: "b", Type: i64, Offset: 8},
		},
	}
	assert.Equal(t, int64(8), st.Align(amd64))
	assert.Equal(t, int64(16), st.Size(amd64))

	u := &Union{Name: "either", Variants: []Type{i32, i64}}
	assert.Equal(t, int64(16), u.Size(amd64), "widest variant padded to pointer size plus the tag word")

	assert.Equal(t, int64(9), (&Maybe{Elem: i64}).Size(amd64), "payload plus the present flag")
}

func TestUnionTagIndex(t *testing.T) {
	i32 := NewBasic(Int32, "i32")
	i64 := NewBasic(Int64, "i64")
	u := &Union{Name: "either", Variants: []Type{i32, i64}}

	assert.Equal(t, 0, u.TagIndex(i32))
	assert.Equal(t, 1, u.TagIndex(i64))
	assert.Equal(t, -1, u.TagIndex(NewBasic(Bool, "bool")))
}

func TestUnderlyingAndDeref(t *testing.T) {
	i32 := NewBasic(Int32, "i32")
	named := &Named{Name: "Celsius", Underlying: i32}
	doubly := &Named{Name: "Freezing", Underlying: named}

	assert.Same(t, Type(i32), Underlying(doubly))
	assert.Same(t, Type(i32), Deref(&Pointer{Elem: i32}))
	assert.Same(t, Type(i32), Deref(i32), "Deref passes non-pointers through")
}

func TestIdentical(t *testing.T) {
	a := NewBasic(Int32, "i32")
	b := NewBasic(Int32, "i32")
	assert.True(t, Identical(a, b), "structural identity, not pointer identity")
	assert.True(t, Identical(&Slice{Elem: a}, &Slice{Elem: b}))
	assert.False(t, Identical(a, NewBasic(Int64, "i64")))
}

func TestStructFieldIndex(t *testing.T) {
	st := &Struct{
		Name: "vec2",
		Fields: []Field{
			{Name: "x", Type: NewBasic(Float32, "f32")},
			{Name: "y", Type: NewBasic(Float32, "f32")},
		},
	}
	i, ok := st.FieldIndex("y")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = st.FieldIndex("z")
	assert.False(t, ok)
}
