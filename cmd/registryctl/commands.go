package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"myregistry/adapters/registryclient"
	"myregistry/app"
	"myregistry/config"
	"myregistry/domain"
	"myregistry/service"

	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const envRegistryURL = "REGISTRY_URL"

type rootOptions struct {
	url     string
	timeout time.Duration
	out     io.Writer
	errOut  io.Writer
}

func (o *rootOptions) client() *registryclient.Client {
	return registryclient.New(o.url, &http.Client{Timeout: o.timeout})
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{out: out, errOut: errOut}

	defaultURL := os.Getenv(envRegistryURL)
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	root := &cobra.Command{
		Use:           "registryctl",
		Short:         "Inspect and drive a service registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&opts.url, "url", defaultURL, "registry base URL (env "+envRegistryURL+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")

	root.AddCommand(
		newRegisterCmd(opts),
		newHeartbeatCmd(opts),
		newUnregisterCmd(opts),
		newSummaryCmd(opts),
		newDetailsCmd(opts),
		newSweepCmd(opts),
	)
	return root
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var metaJSON string
	cmd := &cobra.Command{
		Use:   "register GROUP ID",
		Short: "Register or refresh one instance and print the group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseMeta(metaJSON)
			if err != nil {
				return err
			}
			instances, err := opts.client().Register(cmd.Context(), args[0], args[1], meta)
			if err != nil {
				return err
			}
			return printJSON(opts.out, instances)
		},
	}
	cmd.Flags().StringVar(&metaJSON, "meta", "", "instance metadata as a JSON object")
	return cmd
}

func newHeartbeatCmd(opts *rootOptions) *cobra.Command {
	var (
		metaJSON string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "heartbeat GROUP [ID]",
		Short: "Keep an instance registered until interrupted, then unregister it",
		Long: "Registers the instance immediately and again on every interval. " +
			"A random UUID is used when ID is omitted.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := parseMeta(metaJSON)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			id := uuid.NewString()
			if len(args) == 2 {
				id = args[1]
			}
			logger := app.NewLogger(opts.errOut, "info")
			level.Info(logger).Log("msg", "Heartbeat started", "group", args[0], "id", id, "interval", interval)

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return opts.client().Heartbeat(ctx, args[0], id, meta, interval, logger)
		},
	}
	cmd.Flags().StringVar(&metaJSON, "meta", "", "instance metadata as a JSON object")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between refreshes")
	return cmd
}

func newUnregisterCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unregister GROUP ID",
		Short: "Remove one instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Unregister(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(opts.out, "Client unregistered successfully")
			return nil
		},
	}
}

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print one line per non-empty group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := opts.client().Summary(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(opts.out, summary)
		},
	}
}

func newDetailsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "details GROUP",
		Short: "Print every instance of a group, most recently updated first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instances, err := opts.client().Details(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(opts.out, instances)
		},
	}
}

// newSweepCmd opens the configured store directly, so it reads the same
// environment and CONFIG_PATH file as the server.
func newSweepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one expiration sweep against the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadStoreConfig()
			if err != nil {
				return err
			}
			logger := app.NewLogger(opts.errOut, cfg.LogLevel)
			clock := service.NewTimeProvider(service.MillisecondUTC)

			store, err := app.OpenStore(cmd.Context(), cfg.Store, clock, logger)
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			registry := service.NewRegistry(store, clock, logger,
				service.WithExpiration(cfg.Expiration()),
				service.WithStoreTimeout(cfg.Store.Timeout),
				service.WithSweepTimeout(cfg.SweepTimeout),
			)
			removed, err := registry.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(opts.out, map[string]int{"removed": removed})
		},
	}
}

func parseMeta(s string) (domain.Meta, error) {
	if s == "" {
		return nil, nil
	}
	var meta domain.Meta
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return nil, fmt.Errorf("--meta must be a JSON object: %w", err)
	}
	return meta, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
