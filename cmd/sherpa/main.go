// Command sherpa runs the Startup Sherpa multi-agent router.
//
//	sherpa serve [-config sherpa.yaml] [-addr :8000]
//	sherpa chat  [-config sherpa.yaml] [-agent mvp_builder] [-thread thread_x] "메시지"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/sherpa"
	"github.com/hupe1980/sherpa/config"
	"github.com/hupe1980/sherpa/engine"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "sherpa: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError()
	}

	switch args[0] {
	case "serve":
		return serve(args[1:])
	case "chat":
		return chat(args[1:], out)
	case "-h", "--help", "help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		return usageError()
	}
}

const usage = `usage:
  sherpa serve [-config file] [-addr host:port]
  sherpa chat  [-config file] [-agent id] [-thread id] message`

func usageError() error {
	return fmt.Errorf("missing or unknown command\n%s", usage)
}

func loadConfig(path string) (*config.Config, error) {
	config.LoadDotEnv()
	return config.Load(path)
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cfgPath := fs.String("config", "sherpa.yaml", "path to the YAML config file")
	addr := fs.String("addr", "", "listen address (overrides config)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, err := sherpa.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := sherpa.New(ctx, func(o *sherpa.Options) {
		o.Config = cfg
		o.Logger = logger
	})
	if err != nil {
		return err
	}
	defer app.Close()

	srv := app.Server()
	defer srv.Close()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func chat(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	cfgPath := fs.String("config", "sherpa.yaml", "path to the YAML config file")
	agentID := fs.String("agent", "", "agent id to answer directly (default: supervisor routing)")
	threadID := fs.String("thread", "", "thread id to continue")

	if err := fs.Parse(args); err != nil {
		return err
	}

	message := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if message == "" {
		return fmt.Errorf("chat needs a message\n%s", usage)
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	logger, err := sherpa.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if cfg.Server.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Server.RequestTimeout)
		defer cancel()
	}

	app, err := sherpa.New(ctx, func(o *sherpa.Options) {
		o.Config = cfg
		o.Logger = logger
	})
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.Chat(ctx, engine.ChatRequest{Message: message, ThreadID: *threadID, Agent: *agentID})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "[%s] (thread %s)\n\n%s\n", resp.Agent, resp.ThreadID, resp.Response)

	return nil
}
