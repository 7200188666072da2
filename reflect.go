package goserde

import (
	"math"
	"strconv"

	"github.com/reoring/goserde/wire"
)

// Reflector binds one storage location to the wire. Read replaces the bound
// value from the Reader's current position; Write emits the bound value.
type Reflector interface {
	Read(r Reader) error
	Write(w Writer) error
}

// Visitor is either a Reader or a Writer.
type Visitor interface {
	Format() Format
}

// Reflect reads into r when v is a Reader and writes r when v is a Writer.
func Reflect(v Visitor, r Reflector) error {
	switch vis := v.(type) {
	case Reader:
		return r.Read(vis)
	case Writer:
		return r.Write(vis)
	}
	return wire.NewIssue(wire.CodeUnsupported, "", map[string]string{"got": "visitor"})
}

// scalar binds an elementary value through a getter and an emitter.
type scalar[T any] struct {
	p     *T
	read  func(Reader) (T, error)
	write func(Writer, T)
}

func (s scalar[T]) Read(r Reader) error {
	v, err := s.read(r)
	if err != nil {
		return err
	}
	*s.p = v
	return nil
}

func (s scalar[T]) Write(w Writer) error {
	s.write(w, *s.p)
	return nil
}

func Bool(p *bool) Reflector       { return scalar[bool]{p, Reader.GetBool, Writer.Bool} }
func String(p *string) Reflector   { return scalar[string]{p, Reader.GetString, Writer.String} }
func Int32(p *int32) Reflector     { return scalar[int32]{p, Reader.GetInt32, Writer.Int32} }
func Uint32(p *uint32) Reflector   { return scalar[uint32]{p, Reader.GetUint32, Writer.Uint32} }
func Int64(p *int64) Reflector     { return scalar[int64]{p, Reader.GetInt64, Writer.Int64} }
func Uint64(p *uint64) Reflector   { return scalar[uint64]{p, Reader.GetUint64, Writer.Uint64} }
func Float64(p *float64) Reflector { return scalar[float64]{p, Reader.GetFloat64, Writer.Float64} }

// Int binds a platform int as a 64-bit integer.
func Int(p *int) Reflector {
	return scalar[int]{p: p, read: func(r Reader) (int, error) {
		v, err := r.GetInt64()
		if err != nil {
			return 0, err
		}
		if v < math.MinInt || v > math.MaxInt {
			return 0, overflow(r, "int", strconv.FormatInt(v, 10))
		}
		return int(v), nil
	}, write: func(w Writer, v int) { w.Int64(int64(v)) }}
}

// Uint binds a platform uint as an unsigned 64-bit integer.
func Uint(p *uint) Reflector {
	return scalar[uint]{p: p, read: func(r Reader) (uint, error) {
		v, err := r.GetUint64()
		if err != nil {
			return 0, err
		}
		if v > math.MaxUint {
			return 0, overflow(r, "uint", strconv.FormatUint(v, 10))
		}
		return uint(v), nil
	}, write: func(w Writer, v uint) { w.Uint64(uint64(v)) }}
}

// Int8 and Int16 travel as 32-bit integers and are range checked on read.
func Int8(p *int8) Reflector   { return narrowSigned(p, "int8", math.MinInt8, math.MaxInt8) }
func Int16(p *int16) Reflector { return narrowSigned(p, "int16", math.MinInt16, math.MaxInt16) }

// Uint8 and Uint16 travel as unsigned 32-bit integers.
func Uint8(p *uint8) Reflector   { return narrowUnsigned(p, "uint8", math.MaxUint8) }
func Uint16(p *uint16) Reflector { return narrowUnsigned(p, "uint16", math.MaxUint16) }

func narrowSigned[T ~int8 | ~int16](p *T, name string, lo, hi int32) Reflector {
	return scalar[T]{p: p, read: func(r Reader) (T, error) {
		v, err := r.GetInt32()
		if err != nil {
			return 0, err
		}
		if v < lo || v > hi {
			return 0, overflow(r, name, strconv.FormatInt(int64(v), 10))
		}
		return T(v), nil
	}, write: func(w Writer, v T) { w.Int32(int32(v)) }}
}

func narrowUnsigned[T ~uint8 | ~uint16](p *T, name string, hi uint32) Reflector {
	return scalar[T]{p: p, read: func(r Reader) (T, error) {
		v, err := r.GetUint32()
		if err != nil {
			return 0, err
		}
		if v > hi {
			return 0, overflow(r, name, strconv.FormatUint(uint64(v), 10))
		}
		return T(v), nil
	}, write: func(w Writer, v T) { w.Uint32(uint32(v)) }}
}

func overflow(r Reader, want, got string) error {
	return wire.TypeMismatch(r.Path(), want, got)
}

// Integer is the set of underlying types an enumeration may use.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

// Enum binds an enumeration by its underlying integer value. Unknown values
// that fit the underlying type are accepted unchanged.
func Enum[E Integer](p *E) Reflector {
	return scalar[E]{p: p, read: func(r Reader) (E, error) {
		v, err := r.GetInt64()
		if err != nil {
			return 0, err
		}
		e := E(v)
		if int64(e) != v {
			return 0, overflow(r, "enum", strconv.FormatInt(v, 10))
		}
		return e, nil
	}, write: func(w Writer, v E) { w.Int64(int64(v)) }}
}

type nullRef struct{}

func (nullRef) Read(r Reader) error  { return r.GetNull() }
func (nullRef) Write(w Writer) error { w.Null(); return nil }

// Null binds a placeholder that is always null on the wire.
func Null() Reflector { return nullRef{} }

type optRef[T any] struct {
	p    *Optional[T]
	elem func(*T) Reflector
}

// Opt binds an Optional. Absent values write null; a null on the wire reads
// as absent, anything else is read through elem.
func Opt[T any](p *Optional[T], elem func(*T) Reflector) Reflector {
	return optRef[T]{p: p, elem: elem}
}

func (o optRef[T]) Read(r Reader) error {
	if r.IsNull() {
		o.p.Clear()
		return nil
	}
	var v T
	if err := o.elem(&v).Read(r); err != nil {
		return err
	}
	o.p.Set(v)
	return nil
}

func (o optRef[T]) Write(w Writer) error {
	if !o.p.present {
		w.Null()
		return nil
	}
	return o.elem(&o.p.value).Write(w)
}

func (o optRef[T]) IsPresent() bool { return o.p.present }
func (o optRef[T]) SetAbsent()      { o.p.Clear() }

type sliceRef[T any] struct {
	p    *[]T
	elem func(*T) Reflector
}

// Slice binds a sequence. Reading replaces the slice with the array's
// elements in order; an empty array reads as a nil slice.
func Slice[T any](p *[]T, elem func(*T) Reflector) Reflector {
	return sliceRef[T]{p: p, elem: elem}
}

func (s sliceRef[T]) Read(r Reader) error {
	var out []T
	err := r.IterArray(func(e Reader) error {
		var v T
		if err := s.elem(&v).Read(e); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return err
	}
	*s.p = out
	return nil
}

func (s sliceRef[T]) Write(w Writer) error {
	items := *s.p
	w.StartArray(len(items))
	for i := range items {
		if err := s.elem(&items[i]).Write(w); err != nil {
			return err
		}
	}
	w.EndArray()
	return nil
}

// describe names the value kind at r for type mismatch messages.
func describe(r Reader) string {
	switch {
	case r.IsNull():
		return "null"
	case r.IsBool():
		return "bool"
	case r.IsString():
		return "string"
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.IsFloat():
		return "number"
	}
	return "unknown"
}
