package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"snake-client/auth"
	"snake-client/client"
	"snake-client/config"
	"snake-client/input"
	"snake-client/logging"
	"snake-client/session"
	"snake-client/transport"
	"snake-client/tui"
)

type options struct {
	envFile   string
	headless  bool
	autoReady bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, opts, err := parseConfig(args)
	if err != nil {
		return err
	}

	logPath := cfg.LogFile
	if opts.headless && logPath == config.Default().LogFile {
		logPath = "-"
	}
	log, err := logging.New(cfg.LogLevel, logPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	dialer, err := newDialer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := session.New(session.WithLogger(log))
	c := client.New(dialer, sess, client.WithLogger(log))
	log.Info("starting",
		zap.String("client", c.ID()),
		zap.String("transport", string(cfg.Transport)),
		zap.String("server", cfg.ServerURL),
		zap.String("username", cfg.Username))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(ctx, c) })
	g.Go(func() error {
		err := c.Run(ctx)
		if opts.headless {
			// Nothing left to show once the connection is gone.
			cancel()
		}
		return err
	})
	g.Go(func() error {
		defer cancel()
		if opts.headless {
			return runHeadless(ctx, sess, c.Diagnostics(), os.Stdout, opts.autoReady)
		}
		return runTerminal(ctx, sess)
	})
	return g.Wait()
}

func runTerminal(ctx context.Context, sess *session.Session) error {
	screen, err := tui.NewTermbox()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Close()

	id, views := sess.Subscribe()
	defer sess.Unsubscribe(id)
	return tui.Run(ctx, screen, views, input.NewGate(sess), sess)
}

func parseConfig(args []string) (config.Config, options, error) {
	fs := flag.NewFlagSet("snake-client", flag.ContinueOnError)
	var (
		opts      options
		serverURL = fs.String("url", "", "game server websocket url")
		transp    = fs.String("transport", "", "websocket or webrtc")
		signalURL = fs.String("signal", "", "WebRTC signaling url (default derived from -url)")
		ice       = fs.String("ice", "", "comma separated ICE server urls")
		token     = fs.String("token", "", "bearer token")
		username  = fs.String("username", "", "player name")
		level     = fs.String("log-level", "", "debug, info, warn or error")
		logFile   = fs.String("log-file", "", `log file, "-" for stderr`)
	)
	fs.StringVar(&opts.envFile, "env", ".env", "dotenv file")
	fs.BoolVar(&opts.headless, "headless", false, "print state changes instead of drawing the board")
	fs.BoolVar(&opts.autoReady, "auto-ready", false, "signal ready and restart automatically (headless)")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, options{}, err
	}

	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return config.Config{}, options{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.ServerURL = *serverURL
		case "transport":
			cfg.Transport = config.Transport(*transp)
		case "signal":
			cfg.SignalURL = *signalURL
		case "ice":
			cfg.ICEURLs = config.SplitList(*ice)
		case "token":
			cfg.Token = *token
		case "username":
			cfg.Username = *username
		case "log-level":
			cfg.LogLevel = *level
		case "log-file":
			cfg.LogFile = *logFile
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.Config{}, options{}, err
	}
	return cfg, opts, nil
}

func newDialer(cfg config.Config) (transport.Dialer, error) {
	header := auth.Header(cfg.Token)

	switch cfg.Transport {
	case config.WebRTC:
		signalURL, err := cfg.SignalingURL()
		if err != nil {
			return nil, err
		}
		return &transport.DataChannel{
			SignalURL:  signalURL,
			Username:   cfg.Username,
			Header:     header,
			ICEServers: cfg.ICEURLs,
		}, nil

	case config.WebSocket:
		u, err := url.Parse(cfg.ServerURL)
		if err != nil {
			return nil, err
		}
		if cfg.Username != "" {
			q := u.Query()
			q.Set("username", cfg.Username)
			u.RawQuery = q.Encode()
		}
		return transport.NewWebSocket(u.String(), header), nil
	}
	return nil, errors.New("unknown transport " + string(cfg.Transport))
}
