package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/zypin-testing/zypin-core/internal/config"
	"github.com/zypin-testing/zypin-core/internal/metrics"
	"github.com/zypin-testing/zypin-core/internal/registry"
	"github.com/zypin-testing/zypin-core/internal/server"
	"github.com/zypin-testing/zypin-core/internal/state"
	"github.com/zypin-testing/zypin-core/internal/supervisor"
	"github.com/zypin-testing/zypin-core/pkg/client"
)

// command holds the per-invocation context every handler works against.
// Built once in main after config loading; nothing here is a package-level
// singleton, so tests can construct their own.
type command struct {
	cfg    config.Config
	logger *slog.Logger
}

func (c *command) statusURL(override string) string {
	if override != "" {
		return override
	}
	return "http://" + c.cfg.Server.Listen + c.cfg.Server.BasePath
}

// Start discovers providers, starts the requested packages, serves status
// until an interrupt or terminate signal arrives, then cleans up.
func (c *command) Start(f StartFlags) error {
	if len(f.Packages) == 0 {
		return fmt.Errorf("at least one package name is required")
	}
	ctx := context.Background()

	probe := client.New(client.Config{BaseURL: c.statusURL(""), Timeout: c.cfg.Timeout, Logger: c.logger})
	if probe.IsRunning(ctx) {
		return fmt.Errorf("a zypin controller is already active at %s", c.statusURL(""))
	}

	if c.cfg.Metrics != nil && c.cfg.Metrics.Enabled {
		if err := metrics.RegisterDefault(); err != nil {
			c.logger.Warn("metrics registration failed", "error", err)
		} else if c.cfg.Metrics.Listen != "" {
			go func() {
				if err := metrics.Serve(c.cfg.Metrics.Listen); err != nil {
					c.logger.Warn("metrics server stopped", "error", err)
				}
			}()
		}
	}

	reg := registry.New(c.cfg.PackageRoots, c.logger)
	reg.Discover()

	st, err := state.New(c.cfg.Store)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	sup := supervisor.New(supervisor.Options{
		Store:     st,
		Logger:    c.logger,
		Log:       c.cfg.Log,
		GlobalEnv: c.cfg.Env,
	})
	defer func() { _ = sup.Close() }()

	started := 0
	for _, name := range f.Packages {
		pkg, ok := reg.Lookup(name)
		if !ok {
			c.logger.Error("unknown package", "name", name)
			continue
		}
		if sup.StartPackage(ctx, name, pkg) {
			started++
		}
	}
	if started == 0 {
		return fmt.Errorf("no packages started")
	}

	srv := server.New(c.cfg.Server.Listen, c.cfg.Server.BasePath, sup, c.logger)
	if err := srv.Start(); err != nil {
		// keep supervising even when the port is taken; status just won't answer
		c.logger.Warn("status server unavailable", "error", err)
	}
	fmt.Printf("zypin: %d package(s) running, status on %s (Ctrl+C to stop)\n", started, srv.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("zypin: shutting down")
	sup.Cleanup(ctx)
	return srv.Stop()
}

// Stop terminates every package recorded in the persisted state, whether or
// not the controller that started them is still alive.
func (c *command) Stop(_ StopFlags) error {
	ctx := context.Background()
	st, err := state.New(c.cfg.Store)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	sup := supervisor.New(supervisor.Options{Store: st, Logger: c.logger})
	defer func() { _ = sup.Close() }()

	snap := sup.Status()
	sup.Cleanup(ctx)
	fmt.Printf("zypin: stopped %d package(s)\n", snap.Running)
	return nil
}

// Status probes the status service and renders the supervisor's snapshot.
// An unreachable service is a normal outcome, not an error.
func (c *command) Status(f StatusFlags) error {
	timeout := f.Timeout
	if timeout == 0 {
		timeout = c.cfg.Timeout
	}
	probe := client.New(client.Config{BaseURL: c.statusURL(f.URL), Timeout: timeout, Logger: c.logger})
	res := probe.Status(context.Background())

	if f.JSON {
		return printJSON(res)
	}
	if !res.Running {
		fmt.Println("zypin: no controller running")
		return nil
	}
	fmt.Printf("zypin: controller active, %d package(s)\n", res.Count)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPID\tSTARTED")
	for _, p := range res.Packages {
		fmt.Fprintf(w, "%s\t%d\t%s\n", p.Name, p.PID, p.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// List renders the discovered catalog.
func (c *command) List(f ListFlags) error {
	reg := registry.New(c.cfg.PackageRoots, c.logger)
	reg.Discover()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if f.Templates {
		fmt.Fprintln(w, "TEMPLATE\tDESCRIPTION")
		for _, t := range reg.Templates() {
			fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Description)
		}
		return w.Flush()
	}
	fmt.Fprintln(w, "NAME\tVERSION\tCAPABILITIES\tTEMPLATES")
	for _, p := range reg.Providers() {
		fmt.Fprintf(w, "%s\t%s\t%v\t%d\n", p.Name(), p.Version(), p.Capabilities(), len(p.Templates()))
	}
	return w.Flush()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
