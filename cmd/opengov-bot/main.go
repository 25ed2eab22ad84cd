package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"opengov/internal/adapters/commonsvotes"
	"opengov/internal/adapters/discord"
	"opengov/internal/core/version"
	"opengov/internal/modkit"
	"opengov/internal/modkit/module"
	"opengov/internal/modkit/swaggerkit"
	"opengov/internal/platform/config"
	"opengov/internal/platform/logger"
	phttp "opengov/internal/platform/net/http"
	"opengov/internal/platform/net/middleware"
	"opengov/internal/platform/store"

	divdom "opengov/internal/services/divisions/domain"
	divmod "opengov/internal/services/divisions/module"
	divrepo "opengov/internal/services/divisions/repo"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
)

func main() { os.Exit(run()) }

// run returns the process exit code
func run() int {
	var (
		fMode = flag.String("mode", "bot", "bot | once | migrate")
		fEnv  = flag.String("env", ".env", "comma separated .env files; the real environment wins")
	)
	flag.Parse()

	// seed the environment before anything reads it, the logger included
	loaded, envErr := config.LoadEnvFiles(strings.Split(*fEnv, ",")...)

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	adminCfg := root.Prefix("ADMIN_")

	l := logger.Get()
	if envErr != nil {
		l.Panic().Err(envErr).Msg("load env files")
	}
	bi := version.Info()
	l.Info().Strs("env_files", loaded).Str("mode", *fMode).
		Str("version", bi.Version).Str("commit", bi.Commit).
		Msg("starting opengov-bot")

	mode := strings.ToLower(strings.TrimSpace(*fMode))
	switch mode {
	case "bot", "once", "migrate":
	default:
		l.Panic().Str("mode", *fMode).Msg("-mode must be bot, once or migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stCfg := store.ConfigFromEnv(root, version.Service)
	stCfg.RDS.Enabled = stCfg.RDS.Enabled && mode != "migrate"
	st, err := store.Open(ctx, stCfg, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	if mode == "migrate" || pgCfg.MayBool("MIGRATE", true) {
		applied, err := store.ApplyMigrations(ctx, st.PG, divrepo.Migrations, *l)
		if err != nil {
			l.Panic().Err(err).Msg("migrations failed")
		}
		l.Info().Strs("applied", applied).Msg("schema up to date")
	}
	if mode == "migrate" {
		return 0
	}

	opts := divmod.OptionsFromConfig(root)
	source := commonsvotes.NewClient(commonsvotes.Options{
		BaseURL:    opts.SourceBaseURL,
		UserAgent:  version.UserAgent(),
		Timeout:    opts.Timeouts.Source,
		MaxRetries: opts.SourceMaxRetries,
		RetryBase:  opts.RetryBase,
	})

	session, err := discordgo.New("Bot " + root.MustString("DISCORD_TOKEN"))
	if err != nil {
		l.Panic().Err(err).Msg("discord session")
	}
	session.Identify.Intents = discord.Intents
	// the engine owns retries; a 429 must surface instead of blocking a pass
	session.ShouldRetryOnRateLimit = false
	threads := discord.NewDriver(session, discord.Options{
		HubChannelID:   opts.HubChannelID,
		ArchiveMinutes: opts.ArchiveMinutes,
	})

	deps := modkit.Deps{Log: *l, Cfg: root, PG: st.PG, RDS: st.RDS}
	divs := divmod.New(deps, source, threads, opts)

	reg := module.NewRegistry()
	reg.Register(divs)
	ports, ok := module.PortsAs[divmod.Ports](reg, divs.Name())
	if !ok {
		l.Panic().Msg("divisions ports not registered")
	}

	if mode == "once" {
		if err := st.Guard(ctx); err != nil {
			l.Error().Err(err).Msg("backends not reachable")
			return 1
		}
		rep, err := ports.Scheduler.Trigger(ctx, "once")
		if err != nil {
			l.Error().Err(err).Str("kind", divdom.KindOf(err)).Msg("pass failed")
			return 1
		}
		l.Info().Int("created", rep.Created).Int("updated", rep.Updated).Int("failed", rep.Failed).Msg("pass complete")
		return 0
	}

	discord.Register(session)
	if err := session.Open(); err != nil {
		l.Panic().Err(err).Msg("discord gateway open failed")
	}
	defer func() { _ = session.Close() }()

	errCh := make(chan error, 2)
	running := 1
	go func() { errCh <- ports.Scheduler.Run(ctx) }()

	if adminCfg.MayBool("ENABLED", true) {
		srv := phttp.NewServer(adminCfg, func(m *chi.Mux) {
			m.Use(middleware.Stack(adminCfg.MayCSV("CORS_ORIGINS", nil), 2*time.Minute)...)
		})
		reg.MountAll(srv.Router())
		swaggerkit.Mount(srv.Router(), adminCfg.MayBool("DOCS_ENABLED", false))
		running++
		go func() { errCh <- srv.Run(ctx) }()
	}

	code := 0
	for ; running > 0; running-- {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			l.Error().Err(err).Msg("component stopped")
			code = 1
			stop()
		}
	}
	l.Info().Msg("opengov-bot stopped")
	return code
}
