package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/goware/urlx"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Target struct {
		BaseURL string        `long:"baseurl" description:"base URL of the service under test" default:"http://localhost:3000"`
		Timeout time.Duration `long:"timeout" description:"per-request client timeout" default:"10s"`
	} `group:"Target Options"`
	Mix      MixWeights `group:"Request Mix Options" namespace:"mix" yaml:"mix"`
	Quantity struct {
		RunTime       time.Duration `long:"runtime" description:"how long to generate traffic" default:"60s"`
		MinSleep      time.Duration `long:"minsleep" description:"minimum pause between requests" default:"100ms"`
		MaxSleep      time.Duration `long:"maxsleep" description:"maximum pause between requests" default:"500ms"`
		ProgressEvery int           `long:"progressevery" description:"emit a progress line every N requests (0 disables)" default:"10"`
	} `group:"Quantity Options"`
	Telemetry struct {
		Endpoint string `long:"endpoint" description:"OTLP host to receive the generator's own client spans (empty disables tracing)" default:"" yaml:",omitempty"`
		Protocol string `long:"protocol" description:"OTLP protocol to use" choice:"grpc" choice:"http" default:"grpc"`
		Insecure bool   `long:"insecure" description:"use this for insecure http (not https) connections" yaml:",omitempty"`
		Service  string `long:"service" description:"service name to attach to exported spans" default:"trafficgen"`
	} `group:"Telemetry Options"`
	Global struct {
		LogLevel  string `long:"loglevel" description:"level of logging" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
		Seed      string `long:"seed" description:"string seed for the random number generator (defaults to the base URL)" yaml:",omitempty"`
		DebugPort int    `long:"debugport" description:"port to listen on for pprof(*)" default:"-1" yaml:"-"`
		Config    string `long:"config" description:"name of config file to load(*)" default:"" yaml:"-"`
		WriteCfg  string `long:"writecfg" description:"write effective YAML config to the specified output file and quit(*)" default:"" yaml:"-"`
	} `group:"Global Options"`
	baseURL  *url.URL
	otlphost *url.URL
}

func (o *Options) CopyStarredFieldsFrom(other *Options) {
	o.Global.DebugPort = other.Global.DebugPort
	o.Global.Config = other.Global.Config
	o.Global.WriteCfg = other.Global.WriteCfg
}

func (o *Options) DebugLevel() int {
	switch o.Global.LogLevel {
	case "debug":
		return 3
	case "info":
		return 2
	case "warn":
		return 1
	case "error":
		return 0
	default:
		return 0
	}
}

// parseHost cleans up a host string so that under-specified values still
// resolve to something usable. Exits if it can't make sense of it.
func parseHost(log Logger, host string, insecure bool, defaultPort string) *url.URL {
	defaultScheme := "https"
	if insecure {
		defaultScheme = "http"
	}
	u, err := urlx.ParseWithDefaultScheme(host, defaultScheme)
	if err != nil {
		log.Fatal("unable to parse host %s: %s\n", host, err)
	}
	if u.Port() == "" && defaultPort != "" {
		u.Host = fmt.Sprintf("%s:%s", u.Host, defaultPort)
	}
	return u
}

func ReadConfig(opts *Options, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(opts); err != nil {
		return err
	}
	log.Printf("read config from %s\n", filename)
	return nil
}

func WriteConfig(opts *Options, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	if err := enc.Encode(opts); err != nil {
		return err
	}
	log.Printf("wrote config to %s\n", filename)
	return nil
}

func main() {
	cmdopts := &Options{}

	parser := flags.NewParser(cmdopts, flags.Default)
	parser.Usage = `[OPTIONS] [DURATION_SECONDS] [BASE_URL]

	trafficgen drives synthetic traffic against the sample service for a bounded
	amount of time, selecting endpoints according to a fixed categorical mix,
	and reports aggregate outcome counts and latency percentiles when done.

	The positional arguments mirror the original two-argument interface:
	a run duration in seconds (default 60) and a base URL (default
	http://localhost:3000). Both can also be set with flags, and the mix
	weights can be reshaped with the --mix.* options (they must sum to 100).

	Individual request failures, including connection errors, are counted
	and never abort the run.

	Options can be set in a config file, or on the command line; to specify
	them in the config file, specify it on the command line with
	"--config=FILENAME". The config file format is YAML.

	Note: If a config file is used, it MUST be used for all options, except
	for the ones marked in the help text with (*) -- these fields CANNOT be
	set in the config file.
	`

	args, err := parser.Parse()
	if err != nil {
		switch flagsErr := err.(type) {
		case *flags.Error:
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		log.Fatalf("error reading command line: %v", err)
	}

	opts := &Options{}
	if cmdopts.Global.Config != "" {
		if err := ReadConfig(opts, cmdopts.Global.Config); err != nil {
			log.Fatalf("err %v -- unable to read config file %s", err, cmdopts.Global.Config)
		}
		opts.CopyStarredFieldsFrom(cmdopts)
	} else {
		opts = cmdopts
	}

	// positional args: [durationSeconds] [baseURL]
	if len(args) > 0 {
		secs, err := strconv.Atoi(args[0])
		if err != nil || secs <= 0 {
			log.Fatalf("duration must be a positive integer of seconds, got %q", args[0])
		}
		opts.Quantity.RunTime = time.Duration(secs) * time.Second
	}
	if len(args) > 1 {
		opts.Target.BaseURL = args[1]
	}
	if len(args) > 2 {
		log.Fatalf("unexpected extra arguments: %v", args[2:])
	}

	if opts.Global.WriteCfg != "" {
		if err := WriteConfig(opts, opts.Global.WriteCfg); err != nil {
			log.Fatalf("unable to write config: %s", err)
		}
		os.Exit(0)
	}

	if opts.Global.Seed == "" {
		opts.Global.Seed = opts.Target.BaseURL
	}

	if opts.Global.DebugPort > 0 {
		go func() {
			http.ListenAndServe(fmt.Sprintf("localhost:%d", opts.Global.DebugPort), nil)
		}()
	}

	logr := NewLogger(opts.DebugLevel())

	mix, err := NewMix(opts.Mix)
	if err != nil {
		logr.Fatal("invalid request mix: %s\n", err)
	}

	opts.baseURL = parseHost(logr, opts.Target.BaseURL, true, "")
	if opts.Telemetry.Endpoint != "" {
		opts.otlphost = parseHost(logr, opts.Telemetry.Endpoint, opts.Telemetry.Insecure, "4317")
	}

	logr.Info("target: %s, duration: %s, seed: %q\n",
		opts.baseURL.String(), opts.Quantity.RunTime, opts.Global.Seed)

	tracer, shutdown := setupTelemetry(logr, opts)
	defer shutdown()

	rng := NewRng(opts.Global.Seed)
	target := NewTarget(opts.baseURL, opts.Target.Timeout, rng, logr)
	runner := NewRunner(target, mix, rng, logr, opts)
	if tracer != nil {
		runner = runner.WithTracer(tracer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := runner.Run(ctx, opts.Quantity.RunTime)
	runner.Report(summary, opts.Quantity.RunTime)
}
