// Package goserde provides:
//
// - One declarative description per record type (Members) that drives both
// reading and writing
// - Type-directed traversal (Reflect) over elementary values, enums,
// optionals, slices and nested records
// - A per-format member policy: absent optionals are omitted from JSON but
// written as null in the binary format
// - A versioned envelope (Serialize/Deserialize) that rejects stale persisted
// data with a distinguishable version_mismatch Issue
//
// Design policy:
// - Keep only public APIs in the root package; codecs live under wire/, shared
// reader machinery under internal/engine.
// - No process-wide mutable state: formatting travels in EncodeOpt, ambient
// values (loggers, project roots) travel in the context.Context.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	type Point struct{ X, Y int32 }
//
//	func (p *Point) Members() []goserde.Member {
//		return []goserde.Member{
//			goserde.Field("x", goserde.Int32(&p.X)),
//			goserde.Field("y", goserde.Int32(&p.Y)),
//		}
//	}
//
//	data, err := goserde.Serialize(ctx, goserde.FormatBinary, &Point{X: 1, Y: 2})
//	p, err := goserde.Deserialize[Point](ctx, goserde.FormatBinary, "p.blob", data, "", goserde.None[int]())
package goserde
