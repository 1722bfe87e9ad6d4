// Command destinations resolves named destinations and issues requests
// against them.
//
//	destinations run --config destinations.yaml --destination orders --path /v1/orders
//	destinations resolve --destination orders
//	destinations migrate --store-driver sqlite3 --store-dsn file:destinations.db
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	destinations "github.com/goliatone/go-destinations"
	destcommand "github.com/goliatone/go-destinations/command"
	"github.com/goliatone/go-destinations/config"
	"github.com/goliatone/go-destinations/core"
	destquery "github.com/goliatone/go-destinations/query"
	"github.com/goliatone/go-destinations/security"
	"github.com/spf13/pflag"
)

const usage = `usage: destinations <command> [flags]

commands:
  run       issue a request against a destination and print the response body
  resolve   print the resolved destination with secrets redacted
  migrate   apply the destination_entries schema to a SQL store
`

type cliOptions struct {
	configPath  string
	destination string
	method      string
	path        string
	headers     []string
	data        string
	timeout     time.Duration
	debug       bool
	storeDriver string
	storeDSN    string
	appKey      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "run":
		err = runDestination(ctx, args[1:], stdout, stderr)
	case "resolve":
		err = resolveDestination(ctx, args[1:], stdout, stderr)
	case "migrate":
		err = migrateStore(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

func newFlagSet(name string, opts *cliOptions, stderr io.Writer) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.configPath, "config", "", "YAML or JSON file with the destinations map")
	flags.BoolVar(&opts.debug, "debug", false, "log outbound requests and responses")
	flags.StringVar(&opts.storeDriver, "store-driver", "sqlite3", "SQL destination store driver (sqlite3 or postgres)")
	flags.StringVar(&opts.storeDSN, "store-dsn", "", "SQL destination store DSN; enables the SQL store")
	flags.StringVar(&opts.appKey, "app-key", os.Getenv(security.EnvAppKey), "key sealing stored passwords")
	return flags
}

func runDestination(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	opts := cliOptions{}
	flags := newFlagSet("run", &opts, stderr)
	flags.StringVarP(&opts.destination, "destination", "d", "", "destination name")
	flags.StringVarP(&opts.method, "method", "X", http.MethodGet, "HTTP method")
	flags.StringVarP(&opts.path, "path", "p", "", "request path appended to the destination url")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "request header as 'Name: value', repeatable")
	flags.StringVar(&opts.data, "data", "", "request body, or @file to read it from a file")
	flags.DurationVar(&opts.timeout, "timeout", 0, "request timeout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}
	body, err := readBody(opts.data)
	if err != nil {
		return err
	}

	facade, closeFn, err := buildFacade(ctx, opts, stderr)
	if err != nil {
		return err
	}
	defer closeFn()

	request := core.RequestOptions{
		Method:  opts.method,
		Path:    opts.path,
		Headers: headers,
		Timeout: opts.timeout,
	}
	if body != nil {
		request.Body = body
	}
	response, err := facade.Run(ctx, destcommand.RunDestinationMessage{
		Destination: opts.destination,
		Request:     request,
	})
	if err != nil {
		return err
	}
	out := response.Bytes()
	if _, err := stdout.Write(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		_, err = io.WriteString(stdout, "\n")
	}
	return err
}

func resolveDestination(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	opts := cliOptions{}
	flags := newFlagSet("resolve", &opts, stderr)
	flags.StringVarP(&opts.destination, "destination", "d", "", "destination name")
	if err := flags.Parse(args); err != nil {
		return err
	}

	facade, closeFn, err := buildFacade(ctx, opts, stderr)
	if err != nil {
		return err
	}
	defer closeFn()

	record, err := facade.Queries().Resolve.Query(ctx, destquery.ResolveDestinationMessage{Destination: opts.destination})
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(recordView(record))
}

func migrateStore(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) error {
	opts := cliOptions{}
	flags := newFlagSet("migrate", &opts, stderr)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(opts.storeDSN) == "" {
		return fmt.Errorf("--store-dsn is required")
	}
	opened, err := openStore(ctx, storeConfig{driver: opts.storeDriver, dsn: opts.storeDSN, debug: opts.debug}, opts.appKey)
	if err != nil {
		return err
	}
	defer func() { _ = opened.Close() }()
	_, err = fmt.Fprintln(stdout, "destination_entries schema is up to date")
	return err
}

// buildFacade layers the config file and environment, VCAP_SERVICES bindings
// and, when a DSN is given, the SQL destination store. The SQL store takes
// precedence over a bound destination service.
func buildFacade(ctx context.Context, opts cliOptions, stderr io.Writer) (*destinations.Facade, func(), error) {
	closeFn := func() {}
	logger := newCLILogger(stderr, opts.debug)
	serviceOpts := []destinations.Option{
		destinations.WithLogger(logger),
		destinations.WithConfigProvider(core.NewCfgxConfigProvider(config.ChainLoader{
			config.NewFileLoader(opts.configPath),
			config.NewEnvLoader(),
		})),
	}

	bound, err := destinations.OptionsFromEnv()
	if err != nil {
		return nil, closeFn, err
	}
	serviceOpts = append(serviceOpts, bound...)

	if strings.TrimSpace(opts.storeDSN) != "" {
		opened, err := openStore(ctx, storeConfig{driver: opts.storeDriver, dsn: opts.storeDSN, debug: opts.debug}, opts.appKey)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = func() { _ = opened.Close() }
		serviceOpts = append(serviceOpts, destinations.WithDestinationStore(opened.store))
	}

	cfg := destinations.DefaultConfig()
	cfg.Debug = opts.debug
	svc, err := destinations.NewService(cfg, serviceOpts...)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	facade, err := destinations.NewFacade(svc)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return facade, closeFn, nil
}

func parseHeaders(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(values))
	for _, value := range values {
		name, content, ok := strings.Cut(value, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", value)
		}
		headers[name] = strings.TrimSpace(content)
	}
	return headers, nil
}

func readBody(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(data, "@"); ok {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		return raw, nil
	}
	return []byte(data), nil
}

func recordView(record core.CredentialRecord) map[string]any {
	view := map[string]any{
		"name":           record.Name,
		"url":            record.URL,
		"authentication": string(record.AuthenticationType),
		"proxy_type":     record.ProxyType,
	}
	if record.Username != "" {
		view["user"] = record.Username
	}
	if record.Password != "" {
		view["password"] = record.Password
	}
	if location := record.LocationID(); location != "" {
		view["cloud_connector_location_id"] = location
	}
	if properties := record.Properties(); len(properties) > 0 {
		view["properties"] = properties
	}
	return view
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	payload, ok := core.UpstreamPayload(err)
	if !ok || payload == nil {
		return
	}
	encoded, marshalErr := json.Marshal(core.RedactSensitiveMap(map[string]any{"upstream": payload}))
	if marshalErr != nil {
		return
	}
	fmt.Fprintf(w, "%s\n", encoded)
}
