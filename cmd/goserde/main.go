package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/reoring/goserde"
	"github.com/reoring/goserde/index"
	"github.com/reoring/goserde/internal/config"
	"github.com/reoring/goserde/internal/logging"
	"github.com/reoring/goserde/store"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
	exitStale = 3
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

const usageText = `goserde CLI

Usage:
  goserde [-config file.yaml|file.toml] [-log-level L] <command> [flags]

Commands:
  convert -i IN -o OUT [-from F] [-to F] [-pretty]
  inspect [-format F] [-version N] FILE
  check   [-format F] [-version N] FILE      exit 0 current, 3 stale, 1 malformed
  store put -key K [-format F] FILE
  store get -key K [-to F] [-o OUT]

Formats: json, binary (alias msgpack). Without -format the file extension
decides (.blob is binary) and then the configured default.`

// app carries what every command needs.
type app struct {
	ctx    context.Context
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("goserde", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprintln(stderr, usageText) }
	var cfgPath, level string
	fs.StringVar(&cfgPath, "config", "", "configuration file (.yaml, .yml or .toml)")
	fs.StringVar(&level, "log-level", "", "log level (overrides the configuration)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitFail
		}
	}
	if level != "" {
		cfg.Log.Level = level
	}
	logger, err := logging.Init(logging.Options{App: "goserde", Level: cfg.Log.Level, NoColor: cfg.Log.NoColor, Out: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	ctx = logger.WithContext(ctx)
	if cfg.ProjectRoot != "" {
		ctx = index.WithProject(ctx, index.Project{Root: cfg.ProjectRoot})
	}

	a := &app{ctx: ctx, cfg: cfg, stdout: stdout, stderr: stderr}
	rest := fs.Args()[1:]
	switch fs.Arg(0) {
	case "convert":
		return a.convertCmd(rest)
	case "inspect":
		return a.inspectCmd(rest)
	case "check":
		return a.checkCmd(rest)
	case "store":
		return a.storeCmd(rest)
	default:
		fs.Usage()
		return exitUsage
	}
}

func (a *app) failf(format string, args ...any) int {
	fmt.Fprintf(a.stderr, "error: "+format+"\n", args...)
	return exitFail
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// formatFor resolves an explicit format name, else the file extension, else
// the configured default.
func (a *app) formatFor(name, path string) (goserde.Format, error) {
	if name != "" {
		return goserde.ParseFormat(name)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case goserde.FormatBinary.Ext(), ".msgpack":
		return goserde.FormatBinary, nil
	case goserde.FormatJSON.Ext():
		return goserde.FormatJSON, nil
	}
	return a.cfg.WireFormat(), nil
}

func (a *app) readFile(path, formatName string, expected goserde.Optional[int]) (*index.File, error) {
	format, err := a.formatFor(formatName, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return goserde.Deserialize[index.File](a.ctx, format, path, data, "", expected, a.cfg.DecodeOpt())
}

func (a *app) writeRecord(out io.Writer, format goserde.Format, rec goserde.Record) error {
	return goserde.Encode(a.ctx, out, format, rec, a.cfg.EncodeOpt())
}

func versionFlag(fs *flag.FlagSet) *int {
	return fs.Int("version", index.Version, "expected schema version (-1 skips the check)")
}

func expectedVersion(v int) goserde.Optional[int] {
	if v < 0 {
		return goserde.None[int]()
	}
	return goserde.Some(v)
}

func (a *app) convertCmd(args []string) int {
	fs := a.flags("convert")
	var in, out, from, to string
	fs.StringVar(&in, "i", "", "input file")
	fs.StringVar(&out, "o", "", "output file")
	fs.StringVar(&from, "from", "", "input format")
	fs.StringVar(&to, "to", "", "output format")
	fs.BoolVar(&a.cfg.Pretty, "pretty", a.cfg.Pretty, "indent JSON output")
	version := versionFlag(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if in == "" || out == "" {
		fs.Usage()
		return exitUsage
	}
	f, err := a.readFile(in, from, expectedVersion(*version))
	if err != nil {
		return a.failf("read %s: %v", in, err)
	}
	format, err := a.formatFor(to, out)
	if err != nil {
		return a.failf("%v", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return a.failf("creating output dir: %v", err)
	}
	fh, err := os.Create(out)
	if err != nil {
		return a.failf("%v", err)
	}
	if err := a.writeRecord(fh, format, f); err != nil {
		fh.Close()
		return a.failf("write %s: %v", out, err)
	}
	if err := fh.Close(); err != nil {
		return a.failf("write %s: %v", out, err)
	}
	return exitOK
}

func (a *app) inspectCmd(args []string) int {
	fs := a.flags("inspect")
	format := fs.String("format", "", "input format")
	version := versionFlag(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	f, err := a.readFile(fs.Arg(0), *format, expectedVersion(*version))
	if err != nil {
		return a.failf("read %s: %v", fs.Arg(0), err)
	}
	sum := f.Summary()
	w, err := goserde.NewWriter(a.ctx, a.stdout, goserde.FormatJSON, a.cfg.EncodeOpt())
	if err != nil {
		return a.failf("%v", err)
	}
	if err := goserde.Reflect(w, goserde.Tuple(&sum)); err != nil {
		return a.failf("%v", err)
	}
	if err := w.Flush(); err != nil {
		return a.failf("%v", err)
	}
	if !a.cfg.Pretty {
		fmt.Fprintln(a.stdout)
	}
	return exitOK
}

func (a *app) checkCmd(args []string) int {
	fs := a.flags("check")
	format := fs.String("format", "", "input format")
	version := fs.Int("version", index.Version, "expected schema version")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	path := fs.Arg(0)
	_, err := a.readFile(path, *format, goserde.Some(*version))
	switch {
	case err == nil:
		fmt.Fprintf(a.stdout, "%s: current (version %d)\n", path, *version)
		return exitOK
	case goserde.IsVersionMismatch(err):
		fmt.Fprintf(a.stdout, "%s: stale: %v\n", path, err)
		return exitStale
	default:
		return a.failf("%s: %v", path, err)
	}
}

func (a *app) storeCmd(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.stderr, usageText)
		return exitUsage
	}
	backend, closeFn, err := a.openBackend()
	if err != nil {
		return a.failf("open store: %v", err)
	}
	defer closeFn()

	switch args[0] {
	case "put":
		return a.storePut(backend, args[1:])
	case "get":
		return a.storeGet(backend, args[1:])
	default:
		fmt.Fprintln(a.stderr, usageText)
		return exitUsage
	}
}

func (a *app) storePut(b store.Backend, args []string) int {
	fs := a.flags("store put")
	key := fs.String("key", "", "artifact key (defaults to the input path)")
	format := fs.String("format", "", "input format")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	path := fs.Arg(0)
	if *key == "" {
		*key = path
	}
	f, err := a.readFile(path, *format, goserde.Some(index.Version))
	if err != nil {
		return a.failf("read %s: %v", path, err)
	}
	if err := store.Save(a.ctx, b, *key, a.cfg.WireFormat(), f, a.cfg.EncodeOpt()); err != nil {
		return a.failf("%v", err)
	}
	return exitOK
}

func (a *app) storeGet(b store.Backend, args []string) int {
	fs := a.flags("store get")
	key := fs.String("key", "", "artifact key")
	to := fs.String("to", "json", "output format")
	out := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *key == "" {
		fs.Usage()
		return exitUsage
	}
	f, err := store.Load[index.File](a.ctx, b, *key, "", goserde.Some(index.Version), a.cfg.DecodeOpt())
	switch {
	case errors.Is(err, store.ErrStale):
		fmt.Fprintf(a.stdout, "%s: stale, removed\n", *key)
		return exitStale
	case err != nil:
		return a.failf("%v", err)
	}
	format, err := goserde.ParseFormat(*to)
	if err != nil {
		return a.failf("%v", err)
	}
	w := a.stdout
	if *out != "" {
		fh, err := os.Create(*out)
		if err != nil {
			return a.failf("%v", err)
		}
		defer fh.Close()
		w = fh
	}
	if err := a.writeRecord(w, format, f); err != nil {
		return a.failf("%v", err)
	}
	return exitOK
}

func (a *app) openBackend() (store.Backend, func(), error) {
	switch a.cfg.Store.Backend {
	case "redis":
		ttl, err := a.cfg.TTL()
		if err != nil {
			return nil, nil, err
		}
		r := a.cfg.Store.Redis
		b, err := store.NewRedisBackendWithOptions(
			&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB},
			store.WithKeyPrefix(r.Prefix), store.WithTTL(ttl))
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		var opts []store.FileOption
		on, level, err := a.cfg.Compression()
		if err != nil {
			return nil, nil, err
		}
		if on {
			opts = append(opts, store.WithCompression(level))
		}
		b, err := store.NewFileBackend(a.cfg.Store.Dir, opts...)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	}
}
