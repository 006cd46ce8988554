package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/jobboard/app/board"
	"github.com/umputun/jobboard/app/store"
	"github.com/umputun/jobboard/app/term"
	"github.com/umputun/jobboard/app/web"
)

var opts struct {
	Source  string   `short:"s" long:"source" env:"JOBBOARD_SOURCE" default:"data.json" description:"jobs source, file path, file://, http(s):// or sqlite:// url"`
	Tags    []string `short:"t" long:"tag" env:"JOBBOARD_TAGS" env-delim:"," description:"initial language filters"`
	Print   bool     `short:"p" long:"print" description:"print the board to stdout and exit"`
	NoColor bool     `long:"no-color" env:"NO_COLOR" description:"disable colors in print mode"`
	Schema  bool     `long:"schema" description:"print JSON schema of the jobs source and exit"`
	Dbg     bool     `long:"dbg" env:"JOBBOARD_DEBUG" description:"debug mode"`

	Load struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to try unreachable source, 1 disables retries"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial retry delay"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
		Timeout  time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"http source timeout"`
	} `group:"load" namespace:"load" env-namespace:"JOBBOARD_LOAD"`

	Web struct {
		Address string        `long:"address" env:"ADDRESS" default:":8080" description:"web server listen address"`
		Refresh time.Duration `long:"refresh" env:"REFRESH" default:"0s" description:"board polling interval, 0 disables polling"`
		Limit   float64       `long:"limit" env:"LIMIT" default:"10" description:"max filter changes per second per client"`
		Images  string        `long:"images" env:"IMAGES" description:"local directory with company logos, served as /images/"`
	} `group:"web" namespace:"web" env-namespace:"JOBBOARD_WEB"`

	Log struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename   string `long:"filename" env:"FILENAME" default:"jobboard.log" description:"log file name"`
		MaxSize    int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files"`
		MaxAge     int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep old log files"`
		Compress   bool   `long:"compress" env:"COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"JOBBOARD_LOG"`
}

var revision = "unknown"

func main() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}

	if opts.Schema {
		schema, err := store.Schema()
		if err != nil {
			fmt.Fprintf(os.Stderr, "can't make schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(schema))
		return
	}

	if !opts.Print {
		fmt.Printf("jobboard %s\n", revision)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx, os.Stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		if opts.Print {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

// run starts the web server or prints the board, depending on options
func run(ctx context.Context, out io.Writer) error {
	opts.Tags = cleanTags(opts.Tags)
	st := makeStore()
	if opts.Print {
		return printBoard(ctx, st, out)
	}

	srv, err := web.New(web.Config{
		Loader:    st,
		Filters:   opts.Tags,
		Version:   revision,
		Refresh:   opts.Web.Refresh,
		Limit:     opts.Web.Limit,
		ImagesDir: opts.Web.Images,
	})
	if err != nil {
		return fmt.Errorf("can't make web server: %w", err)
	}
	return srv.Run(ctx, opts.Web.Address)
}

// printBoard loads jobs, applies filters from options and prints visible cards
func printBoard(ctx context.Context, st *store.Store, out io.Writer) error {
	filters := board.NewFilterSet(opts.Tags...)
	page := board.NewPage()
	engine, err := board.NewEngine(filters, page)
	if err != nil {
		return fmt.Errorf("can't make render engine: %w", err)
	}

	records, loadErr := st.Load(ctx)
	if loadErr != nil {
		page.SetError(loadErr)
		engine.Render()
	} else {
		engine.SetRecords(records)
	}

	if err := term.NewPrinter(out, opts.NoColor).Print(page.Snapshot(), engine.Total()); err != nil {
		return err
	}

	return loadErr
}

// cleanTags trims tags from command line and env, loaded record languages are trimmed the same way
func cleanTags(tags []string) []string {
	res := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			res = append(res, t)
		}
	}
	return res
}

func makeStore() *store.Store {
	attempts := opts.Load.Attempts
	if attempts < 1 {
		attempts = 1
	}
	rptr := repeater.New(&strategy.Backoff{Repeats: attempts, Duration: opts.Load.Duration,
		Factor: opts.Load.Factor, Jitter: opts.Load.Jitter})
	return store.New(store.Params{Source: opts.Source, Timeout: opts.Load.Timeout, Repeater: rptr})
}

// setupLogs configures lgr, returns writer used for log output
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Print {
		out = io.Discard // stdout is taken by the board, only errors reported
	}
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.Compress,
		}
	}

	if opts.Dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile, log.Out(out), log.Err(out))
		return out
	}
	log.Setup(log.Msec, log.Out(out), log.Err(out))
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM and SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, os.Interrupt)
}
