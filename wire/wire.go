// Package wire defines the capability interfaces every wire codec exposes to
// the traversal engine, plus the error model shared by all codecs.
//
// A Reader wraps one parsed input and exposes type probes, typed extractors and
// structural descent. A Writer wraps one output sink and exposes primitive
// emission and scope management. Traversal code is written once against these
// interfaces; jsonwire and packwire provide the implementations.
package wire

import "context"

// Reader is bound to one input and one format. Extractors assume the matching
// probe already succeeded and return a type_mismatch Issue otherwise.
// A Reader is not safe for concurrent use.
type Reader interface {
	Format() Format
	Context() context.Context
	// Path returns the JSON Pointer of the current cursor ("" is the root).
	Path() string

	IsNull() bool
	IsBool() bool
	IsInt32() bool
	IsUint32() bool
	IsInt64() bool
	IsUint64() bool
	IsFloat() bool
	IsString() bool
	IsArray() bool
	IsObject() bool

	GetNull() error
	GetBool() (bool, error)
	GetInt32() (int32, error)
	GetUint32() (uint32, error)
	GetInt64() (int64, error)
	GetUint64() (uint64, error)
	GetFloat64() (float64, error)
	GetString() (string, error)

	// IterArray calls fn once per element, in order, with a Reader scoped to
	// that element. The first error stops the iteration.
	IterArray(fn func(Reader) error) error
	// HasMember reports whether the current object has a member named name.
	HasMember(name string) bool
	// DoMember calls fn with a Reader scoped to the named member. It returns
	// a missing_field Issue when the member does not exist.
	DoMember(name string, fn func(Reader) error) error
}

// Writer is bound to one output sink and one format. Every Start must be
// matched by exactly one End; the Writer does not check the pairing.
//
// Emission never fails for well-typed input. Sink failures are sticky: the
// first one is kept and reported by Flush.
type Writer interface {
	Format() Format
	Context() context.Context

	Null()
	Bool(v bool)
	Int32(v int32)
	Uint32(v uint32)
	Int64(v int64)
	Uint64(v uint64)
	Float64(v float64)
	String(v string)
	// StringBytes emits text given as bytes with an explicit length.
	StringBytes(v []byte)

	StartArray(n int)
	EndArray()
	StartObject()
	EndObject()
	Key(name string)

	// Flush delivers pending output to the sink and returns the first error
	// recorded during emission.
	Flush() error
}
