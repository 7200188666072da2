package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/reoring/goserde"
	"github.com/reoring/goserde/index"
)

// ---- Helpers ----

// generateFile returns an index with n symbols and n/4 includes, every other
// symbol carrying the optional members.
func generateFile(n int) *index.File {
	f := &index.File{Language: "cpp", LastWriteTime: 1700000000, Args: []string{"clang++", "-O2"}}
	for i := 0; i < n; i++ {
		s := index.Symbol{
			USR:    uint64(i) * 2654435761,
			Name:   fmt.Sprintf("sym_%d", i),
			Kind:   index.SymbolKind(i % 16),
			Extent: index.Range{StartLine: int32(i), EndLine: int32(i + 3), EndColumn: 1},
		}
		if i%2 == 0 {
			s.DeclaringFile = goserde.Some(fmt.Sprintf("/src/dir%d/file.h", i%7))
			s.Comments = goserde.Some("// doc")
		}
		f.Symbols = append(f.Symbols, s)
		if i%4 == 0 {
			f.Includes = append(f.Includes, index.Include{Line: int32(i), ResolvedPath: fmt.Sprintf("/src/inc/h%d.h", i)})
		}
	}
	return f
}

var sizes = []int{10, 1000}

func BenchmarkSerialize(b *testing.B) {
	ctx := index.WithProject(context.Background(), index.Project{Root: "/src"})
	for _, format := range []goserde.Format{goserde.FormatJSON, goserde.FormatBinary} {
		for _, n := range sizes {
			f := generateFile(n)
			b.Run(fmt.Sprintf("%s/symbols=%d", format, n), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					data, err := goserde.Serialize(ctx, format, f)
					if err != nil {
						b.Fatal(err)
					}
					b.SetBytes(int64(len(data)))
				}
			})
		}
	}
}

func BenchmarkDeserialize(b *testing.B) {
	ctx := index.WithProject(context.Background(), index.Project{Root: "/src"})
	for _, format := range []goserde.Format{goserde.FormatJSON, goserde.FormatBinary} {
		for _, n := range sizes {
			data, err := goserde.Serialize(ctx, format, generateFile(n))
			if err != nil {
				b.Fatal(err)
			}
			b.Run(fmt.Sprintf("%s/symbols=%d", format, n), func(b *testing.B) {
				b.ReportAllocs()
				b.SetBytes(int64(len(data)))
				for i := 0; i < b.N; i++ {
					if _, err := goserde.Deserialize[index.File](ctx, format, "/src/a.cc", data, "", goserde.Some(index.Version)); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkDuplicateKeyPolicy compares the cost of duplicate-key enforcement
// on JSON input against reading without it.
func BenchmarkDuplicateKeyPolicy(b *testing.B) {
	ctx := context.Background()
	data, err := goserde.Serialize(ctx, goserde.FormatJSON, generateFile(1000))
	if err != nil {
		b.Fatal(err)
	}
	for _, sev := range []goserde.Severity{goserde.Ignore, goserde.Error} {
		opt := goserde.DecodeOpt{Strictness: goserde.Strictness{OnDuplicateKey: sev}}
		b.Run(fmt.Sprintf("severity=%d", sev), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := goserde.Deserialize[index.File](ctx, goserde.FormatJSON, "a.cc", data, "", goserde.None[int](), opt); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
