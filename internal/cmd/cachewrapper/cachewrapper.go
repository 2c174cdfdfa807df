package cachewrapper

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cw "github.com/holidayextras/cache-wrapper"
	"github.com/holidayextras/cache-wrapper/codec"
	"github.com/holidayextras/cache-wrapper/config"
	zaplog "github.com/holidayextras/cache-wrapper/log/zap"
	"github.com/holidayextras/cache-wrapper/store"
	"github.com/holidayextras/cache-wrapper/store/bigcache"
	"github.com/holidayextras/cache-wrapper/store/memory"
	"github.com/holidayextras/cache-wrapper/store/redis"
)

// Config holds cachewrapper command configuration.
type Config struct {
	Server config.ServerConfig

	// Backend is redis, bigcache or memory. The in-process backends only
	// live for one invocation, which suits demo.
	Backend string

	// ExpiresIn registers the command's segment when no policy file is set.
	ExpiresIn time.Duration
	TTL       time.Duration
	Verbose   bool

	Command string
	Args    []string
}

// usage per subcommand, excluding the command name.
var commands = map[string]struct {
	args  int
	usage string
}{
	"set":    {3, "set <segment> <key> <value>"},
	"get":    {2, "get <segment> <key>"},
	"delete": {2, "delete <segment> <prefix>"},
	"demo":   {0, "demo"},
}

// ParseConfig parses env and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg.Server); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "redis host")
	fs.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "redis port")
	fs.IntVar(&cfg.Server.DB, "db", cfg.Server.DB, "redis database")
	fs.StringVar(&cfg.Server.Partition, "partition", cfg.Server.Partition, "key partition")
	fs.StringVar(&cfg.Server.Policies, "policies", cfg.Server.Policies, "path to a YAML or TOML policy file")
	fs.DurationVar(&cfg.Server.ConnectTimeout, "connect-timeout", cfg.Server.ConnectTimeout, "timeout per connect attempt")
	fs.StringVar(&cfg.Backend, "backend", "redis", "store backend: redis, bigcache or memory")
	fs.DurationVar(&cfg.ExpiresIn, "expires", 10*time.Second, "segment expiry when no policy file is given")
	fs.DurationVar(&cfg.TTL, "ttl", 0, "per-value ttl for set (0 uses the segment expiry)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Server.Validate(); err != nil {
		return Config{}, err
	}

	switch cfg.Backend {
	case "redis", "bigcache", "memory":
	default:
		return Config{}, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("command is required (set, get, delete, demo)")
	}
	cfg.Command, cfg.Args = rest[0], rest[1:]
	cmd, ok := commands[cfg.Command]
	if !ok {
		return Config{}, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if len(cfg.Args) != cmd.args {
		return Config{}, fmt.Errorf("usage: %s", cmd.usage)
	}
	return cfg, nil
}

// Run opens the wrapper and executes the configured command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	policies, err := cfg.policies()
	if err != nil {
		return err
	}

	client, err := cfg.client(ctx)
	if err != nil {
		return err
	}
	w, err := cw.Open(ctx, cw.Options[string]{
		Partition:      cfg.Server.Partition,
		Client:         client,
		Codec:          codec.JSON[string]{},
		Policies:       policies,
		Logger:         zaplog.New(logger),
		ScanCount:      cfg.Server.ScanCount,
		ConnectTimeout: cfg.Server.ConnectTimeout,
	})
	if err != nil {
		_ = client.Close(ctx)
		return err
	}
	defer func() { _ = w.Close(context.Background()) }()

	switch cfg.Command {
	case "set":
		return w.Set(ctx, cw.StashRequest[string]{Segment: cfg.Args[0], Key: cfg.Args[1], Value: cfg.Args[2], TTL: cfg.TTL})
	case "get":
		printGet(ctx, w, out, cfg.Args[0], cfg.Args[1])
		return nil
	case "delete":
		return runDelete(ctx, w, out, cfg.Args[0], cfg.Args[1])
	case "demo":
		return runDemo(ctx, w, out)
	}
	return fmt.Errorf("unknown command %q", cfg.Command)
}

func (cfg Config) policies() ([]cw.PolicyDef, error) {
	if cfg.Server.Policies != "" {
		return config.LoadPolicies(cfg.Server.Policies)
	}
	segment := "foo"
	if cfg.Command != "demo" && len(cfg.Args) > 0 {
		segment = cfg.Args[0]
	}
	return []cw.PolicyDef{{Segment: segment, ExpiresIn: cfg.ExpiresIn}}, nil
}

func (cfg Config) client(ctx context.Context) (store.Client, error) {
	switch cfg.Backend {
	case "bigcache":
		return bigcache.New(ctx, bigcache.Config{LifeWindow: cfg.ExpiresIn})
	case "memory":
		return memory.New(), nil
	default:
		return redis.Dial(cfg.Server.RedisOptions())
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func printGet(ctx context.Context, w cw.Cache[string], out io.Writer, segment, key string) {
	v, err := w.Get(ctx, cw.RetrieveRequest{Segment: segment, Key: key})
	if err != nil {
		fmt.Fprintf(out, "%s\t<miss: %v>\n", key, err)
		return
	}
	fmt.Fprintf(out, "%s\t%s\n", key, v)
}

func runDelete(ctx context.Context, w cw.Cache[string], out io.Writer, segment, prefix string) error {
	res, err := w.Delete(ctx, cw.DeleteRequest{Segment: segment, Prefix: prefix})
	if err != nil {
		return err
	}
	if res.Err != nil {
		return res.Err
	}
	fmt.Fprintf(out, "deleted %d/%d keys\n", len(res.Outcomes)-res.Failed(), len(res.Outcomes))
	for _, o := range res.Outcomes {
		if !o.Fulfilled() {
			fmt.Fprintf(out, "%s\t%v\n", o.Key, o.Err)
		}
	}
	return nil
}

// runDemo stores three keys in "foo", deletes the kev:hodges: prefix and
// reads all three back.
func runDemo(ctx context.Context, w cw.Cache[string], out io.Writer) error {
	values := []struct{ key, value string }{
		{"kev:hodges:1", "baz"},
		{"kev:hodges:2", "also baz"},
		{"kev:nugget:1", "nuggets"},
	}
	for _, kv := range values {
		if err := w.Set(ctx, cw.StashRequest[string]{Segment: "foo", Key: kv.key, Value: kv.value}); err != nil {
			return err
		}
	}
	if err := runDelete(ctx, w, out, "foo", "kev:hodges:"); err != nil {
		return err
	}
	for _, kv := range values {
		printGet(ctx, w, out, "foo", kv.key)
	}
	return nil
}
