package goserde

import "github.com/reoring/goserde/wire"

// Member names one field of a record and binds it to storage.
type Member struct {
	Name  string
	Value Reflector
	// Mandatory forces the member to be written even when Value is an absent
	// optional, for formats that would otherwise omit it.
	Mandatory bool
}

// Field declares a member.
func Field(name string, v Reflector) Member { return Member{Name: name, Value: v} }

// MandatoryField declares a member that is never omitted on write.
func MandatoryField(name string, v Reflector) Member {
	return Member{Name: name, Value: v, Mandatory: true}
}

// Record is implemented by types that describe their members in declaration
// order. Members is called on every read and write, so it must bind to the
// receiver's fields and not cache bindings across calls.
type Record interface {
	Members() []Member
}

// Nullable is implemented by member bindings that can be absent.
type Nullable interface {
	Reflector
	IsPresent() bool
	SetAbsent()
}

// omit reports whether m is skipped on write. Only JSON omits absent
// optionals; the binary format always emits every member so a record type has
// one fixed layout.
func omit(f Format, m Member) bool {
	if m.Mandatory || f != FormatJSON {
		return false
	}
	n, ok := m.Value.(Nullable)
	return ok && !n.IsPresent()
}

func writeMembers(w Writer, members []Member) error {
	w.StartObject()
	for _, m := range members {
		if omit(w.Format(), m) {
			continue
		}
		w.Key(m.Name)
		if err := m.Value.Write(w); err != nil {
			return err
		}
	}
	w.EndObject()
	return nil
}

func readMembers(r Reader, members []Member) error {
	if !r.IsObject() {
		return wire.TypeMismatch(r.Path(), "object", describe(r))
	}
	for _, m := range members {
		if !r.HasMember(m.Name) {
			if n, ok := m.Value.(Nullable); ok {
				n.SetAbsent()
				continue
			}
			return wire.MissingField(r.Path(), m.Name)
		}
		if err := r.DoMember(m.Name, m.Value.Read); err != nil {
			return err
		}
	}
	return nil
}

type objectRef struct{ rec Record }

// Object binds a nested record as a keyed object.
func Object(rec Record) Reflector { return objectRef{rec: rec} }

// ObjectOf adapts Object to the element form taken by Slice and Opt.
func ObjectOf[T any, PT interface {
	*T
	Record
}](p *T) Reflector {
	return Object(PT(p))
}

func (o objectRef) Read(r Reader) error  { return readMembers(r, o.rec.Members()) }
func (o objectRef) Write(w Writer) error { return writeMembers(w, o.rec.Members()) }

type tupleRef struct{ rec Record }

// Tuple binds a record as a positional array of its member values, without
// names. Tuples are an output-only view: reading one fails with unsupported.
func Tuple(rec Record) Reflector { return tupleRef{rec: rec} }

// TupleOf adapts Tuple to the element form taken by Slice and Opt.
func TupleOf[T any, PT interface {
	*T
	Record
}](p *T) Reflector {
	return Tuple(PT(p))
}

func (t tupleRef) Read(r Reader) error {
	return wire.NewIssue(wire.CodeUnsupported, r.Path(), map[string]string{"expected": "keyed object"})
}

// Write emits every member value in order. Optionals are never omitted here,
// since dropping one would shift the positions of the rest.
func (t tupleRef) Write(w Writer) error {
	members := t.rec.Members()
	w.StartArray(len(members))
	for _, m := range members {
		if err := m.Value.Write(w); err != nil {
			return err
		}
	}
	w.EndArray()
	return nil
}
