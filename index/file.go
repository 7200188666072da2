// Package index defines the persisted per-file index record: the symbols,
// includes and diagnostics extracted from one source file, together with the
// project context used to store its paths portably.
package index

import "github.com/reoring/goserde"

// Version is the schema version of File. Bump it whenever Members changes
// shape; artifacts written under another version are rejected as stale.
const Version = 3

// SymbolKind classifies a Symbol.
type SymbolKind uint8

const (
	KindUnknown SymbolKind = iota
	KindFile
	KindModule
	KindNamespace
	KindPackage
	KindClass
	KindMethod
	KindProperty
	KindField
	KindConstructor
	KindEnum
	KindInterface
	KindFunction
	KindVariable
	KindConstant
	KindTypeAlias
	KindMacro
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindFile:        "file",
	KindModule:      "module",
	KindNamespace:   "namespace",
	KindPackage:     "package",
	KindClass:       "class",
	KindMethod:      "method",
	KindProperty:    "property",
	KindField:       "field",
	KindConstructor: "constructor",
	KindEnum:        "enum",
	KindInterface:   "interface",
	KindFunction:    "function",
	KindVariable:    "variable",
	KindConstant:    "constant",
	KindTypeAlias:   "type_alias",
	KindMacro:       "macro",
}

func (k SymbolKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Range is a half-open source span, zero based.
type Range struct {
	StartLine   int32
	StartColumn int32
	EndLine     int32
	EndColumn   int32
}

func (r *Range) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("startLine", goserde.Int32(&r.StartLine)),
		goserde.Field("startColumn", goserde.Int32(&r.StartColumn)),
		goserde.Field("endLine", goserde.Int32(&r.EndLine)),
		goserde.Field("endColumn", goserde.Int32(&r.EndColumn)),
	}
}

// Include is one #include directive and the file it resolved to.
type Include struct {
	Line         int32
	ResolvedPath string
}

func (i *Include) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("line", goserde.Int32(&i.Line)),
		goserde.Field("resolvedPath", ProjectPath(&i.ResolvedPath)),
	}
}

type Symbol struct {
	USR           uint64
	Name          string
	Kind          SymbolKind
	DeclaringFile goserde.Optional[string]
	Extent        Range
	IsStatic      bool
	Comments      goserde.Optional[string]
}

func (s *Symbol) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("usr", goserde.Uint64(&s.USR)),
		goserde.Field("name", goserde.String(&s.Name)),
		goserde.Field("kind", goserde.Enum(&s.Kind)),
		goserde.Field("declaringFile", goserde.Opt(&s.DeclaringFile, ProjectPath)),
		goserde.Field("extent", goserde.Object(&s.Extent)),
		goserde.Field("isStatic", goserde.Bool(&s.IsStatic)),
		goserde.Field("comments", goserde.Opt(&s.Comments, goserde.String)),
	}
}

type Diagnostic struct {
	Severity uint8
	Message  string
	Range    Range
}

func (d *Diagnostic) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("severity", goserde.Uint8(&d.Severity)),
		goserde.Field("message", goserde.String(&d.Message)),
		goserde.Field("range", goserde.Object(&d.Range)),
	}
}

// File is the index of one source file.
type File struct {
	// Path and Content identify the indexed file. They are not persisted;
	// Deserialize restores them from its arguments.
	Path    string
	Content string

	Language      string
	LastWriteTime int64
	Args          []string
	Includes      []Include
	Dependencies  []string
	Symbols       []Symbol
	SkippedRanges []Range
	Diagnostics   goserde.Optional[[]Diagnostic]
	// ImportFile is always emitted, as null when absent, so readers can tell
	// "not imported" from an artifact written before the member existed.
	ImportFile goserde.Optional[string]
}

func (f *File) SchemaVersion() int { return Version }

func (f *File) SetIdentity(path, content string) {
	f.Path = path
	f.Content = content
}

func (f *File) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("language", goserde.String(&f.Language)),
		goserde.Field("lastWriteTime", goserde.Int64(&f.LastWriteTime)),
		goserde.Field("args", goserde.Slice(&f.Args, goserde.String)),
		goserde.Field("includes", goserde.Slice(&f.Includes, goserde.ObjectOf[Include])),
		goserde.Field("dependencies", goserde.Slice(&f.Dependencies, ProjectPath)),
		goserde.Field("symbols", goserde.Slice(&f.Symbols, goserde.ObjectOf[Symbol])),
		goserde.Field("skippedRanges", goserde.Slice(&f.SkippedRanges, goserde.ObjectOf[Range])),
		goserde.Field("diagnostics", goserde.Opt(&f.Diagnostics, diagnostics)),
		goserde.MandatoryField("importFile", goserde.Opt(&f.ImportFile, ProjectPath)),
	}
}

func diagnostics(p *[]Diagnostic) goserde.Reflector {
	return goserde.Slice(p, goserde.ObjectOf[Diagnostic])
}

// Summary is a positional view of a File for listings. It is written as a
// tuple and cannot be read back.
type Summary struct {
	Path     string
	Language string
	Includes int
	Symbols  []SymbolRow
}

type SymbolRow struct {
	Line int32
	Kind SymbolKind
	Name string
}

func (r *SymbolRow) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("line", goserde.Int32(&r.Line)),
		goserde.Field("kind", goserde.Enum(&r.Kind)),
		goserde.Field("name", goserde.String(&r.Name)),
	}
}

func (s *Summary) Members() []goserde.Member {
	return []goserde.Member{
		goserde.Field("path", goserde.String(&s.Path)),
		goserde.Field("language", goserde.String(&s.Language)),
		goserde.Field("includes", goserde.Int(&s.Includes)),
		goserde.Field("symbols", goserde.Slice(&s.Symbols, goserde.TupleOf[SymbolRow])),
	}
}

// Summary returns the listing view of f.
func (f *File) Summary() Summary {
	s := Summary{Path: f.Path, Language: f.Language, Includes: len(f.Includes)}
	for _, sym := range f.Symbols {
		s.Symbols = append(s.Symbols, SymbolRow{Line: sym.Extent.StartLine, Kind: sym.Kind, Name: sym.Name})
	}
	return s
}
