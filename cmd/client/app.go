package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/appserver"
	"github.com/atinyakov/chatdemo/internal/client/chat"
	"github.com/atinyakov/chatdemo/internal/client/provider"
	"github.com/atinyakov/chatdemo/internal/client/storage"
	"github.com/atinyakov/chatdemo/internal/config"
	"github.com/atinyakov/chatdemo/internal/i18n"
	"github.com/atinyakov/chatdemo/internal/logger"
	"github.com/atinyakov/chatdemo/internal/session"
)

// app holds the wired client components for one command run.
type app struct {
	cfg      *config.Client
	log      *zap.Logger
	provider *provider.LocalProvider
	boot     *session.Bootstrapper
	screen   *chat.Screen
	out      io.Writer
}

func newApp(cfgPath, logLevel string, out io.Writer) (*app, error) {
	if cfgPath == "" {
		p, err := config.DefaultClientConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = p
	}
	cfg, err := config.LoadClient(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	l := logger.New()
	if err := l.Init(logLevel); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cat, err := i18n.Load(cfg.Locale)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Server.Timeout
	if timeout <= 0 {
		timeout = appserver.DefaultTimeout
	}
	hc, err := appserver.NewHTTPClient(cfg.Server.CAFile, timeout)
	if err != nil {
		return nil, err
	}
	server := appserver.New(appserver.Endpoints{
		LoginURL: cfg.LoginURL(),
		SMSURL:   cfg.SMSURL(),
	},
		appserver.WithHTTPClient(hc),
		appserver.WithCatalog(cat),
		appserver.WithLogger(l.Log.Named("appserver")),
	)

	store := storage.New(cfg.StoragePath)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", store.Path, err)
	}
	p := provider.New(store,
		provider.WithAutoLogin(cfg.AutoLogin()),
		provider.WithLogger(l.Log.Named("provider")),
	)

	return &app{
		cfg:      cfg,
		log:      l.Log,
		provider: p,
		boot:     session.NewBootstrapper(p, server, cfg, cfg.Chat.AppKey, l.Log.Named("session")),
		screen:   chat.NewScreen(chat.ConsoleNotifier{W: out}, cat, cfg.ChatTyping(), l.Log.Named("chat")),
		out:      out,
	}, nil
}
