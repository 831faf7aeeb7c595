package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/ganxiyun/es-testcluster/internal/client"
	"github.com/ganxiyun/es-testcluster/internal/config"
	"github.com/ganxiyun/es-testcluster/internal/logging"
	"github.com/ganxiyun/es-testcluster/internal/testcluster"
	"github.com/ganxiyun/es-testcluster/internal/tui"
)

// bootTimeout bounds how long startup waits for every node to listen.
const bootTimeout = 30 * time.Second

// cliFlags holds the parsed command line. set records which flags were
// given explicitly so only those override the loaded configuration.
type cliFlags struct {
	configPath         string
	nodes              int
	partitioned        bool
	hostPublishAddress bool
	headless           bool
	interval           time.Duration
	logLevel           string

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("escluster", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "path to a YAML config file (default $ESCLUSTER_CONFIG or ./escluster.yaml)")
	fs.IntVar(&f.nodes, "nodes", testcluster.DefaultNumberOfNodes, "number of nodes to boot")
	fs.BoolVar(&f.partitioned, "partitioned", false, "hide the oldest node from every sniff response")
	fs.BoolVar(&f.hostPublishAddress, "host-publish-address", false, "publish addresses as localhost/127.0.0.1:<port>")
	fs.BoolVar(&f.headless, "headless", false, "print node URLs and wait for a signal instead of running the console")
	fs.DurationVar(&f.interval, "interval", 2*time.Second, "console probe interval (e.g. 2s, 500ms)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: escluster [flags]\n\n")
		fmt.Fprintf(stderr, "examples:\n")
		fmt.Fprintf(stderr, "  escluster -nodes 3\n")
		fmt.Fprintf(stderr, "  escluster -headless -partitioned -log-level debug\n")
		fmt.Fprintf(stderr, "  escluster -config escluster.yaml -interval 5s\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// resolveConfig loads the file and environment configuration and applies
// explicitly set flags on top.
func resolveConfig(f *cliFlags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.set["nodes"] {
		cfg.Cluster.Nodes = f.nodes
	}
	if f.set["partitioned"] {
		cfg.Cluster.Partitioned = f.partitioned
	}
	if f.set["host-publish-address"] {
		cfg.Cluster.HostPublishAddress = f.hostPublishAddress
	}
	if f.set["interval"] {
		cfg.Console.Interval = f.interval
	}
	if f.set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printNodes writes one "<id> <url>" line per node in boot order.
func printNodes(w io.Writer, nodes []testcluster.Node) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s %s\n", n.ID, n.URL)
	}
}

// logSniffView logs what the cluster reports about itself through a sniff.
func logSniffView(ctx context.Context, c *client.Client, log logrus.FieldLogger) {
	nodes, err := c.Sniff(ctx)
	if err != nil {
		log.WithError(err).Warn("Sniff failed")
		return
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	log.WithField("nodes", strings.Join(ids, ",")).Debugf("Sniff reports %d nodes", len(nodes))
}

// runHeadless prints the node list and blocks until ctx is done, then shuts
// the cluster down.
func runHeadless(ctx context.Context, cluster *testcluster.Cluster, c *client.Client, out io.Writer, log logrus.FieldLogger) error {
	printNodes(out, cluster.Nodes())
	if c != nil {
		logSniffView(ctx, c, log)
	}
	<-ctx.Done()
	log.Info("Shutting down")
	return cluster.Shutdown()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := resolveConfig(f)
	if err != nil {
		return err
	}

	// The console owns the terminal, so stderr/stdout logging is discarded.
	output := cfg.Log.Output
	if !f.headless && (output == "" || output == "stderr" || output == "stdout") {
		output = "discard"
	}
	logOut, closeLog, err := logging.Open(output)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck
	log := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)

	opts := cfg.ClusterOptions()
	opts.Logger = log

	bootCtx, cancel := context.WithTimeout(ctx, bootTimeout)
	cluster, err := testcluster.Start(bootCtx, &opts)
	cancel()
	if err != nil {
		return fmt.Errorf("start cluster: %w", err)
	}
	defer cluster.Shutdown() //nolint:errcheck

	var probe *client.Client
	if urls := cluster.URLs(); len(urls) > 0 {
		probe, err = client.New(client.Config{
			Nodes:          urls,
			RequestTimeout: 5 * time.Second,
			Logger:         log,
		})
		if err != nil {
			return err
		}
	}

	if f.headless {
		return runHeadless(ctx, cluster, probe, stdout, log)
	}

	if probe == nil {
		return errors.New("the console needs at least one node; use -headless for an empty cluster")
	}
	p := tea.NewProgram(tui.NewApp(cluster, probe, cfg.Console.Interval), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
