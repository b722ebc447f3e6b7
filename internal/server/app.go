// Package server wires configuration, storage, mail and services together and
// runs the REST API until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/contactbook/internal/filex"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/config"
	"github.com/dmitrijs2005/contactbook/internal/server/mailer"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactbook/internal/server/rest"
	"github.com/dmitrijs2005/contactbook/internal/server/services"
	"github.com/dmitrijs2005/contactbook/internal/server/storage"
)

const avatarURLPrefix = "/avatars"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *rest.Server
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	db, err := openDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	server, err := newServer(ctx, cfg, logger, db, rm)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{config: cfg, logger: logger, db: db, server: server}, nil
}

func newServer(ctx context.Context, cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*rest.Server, error) {
	tmpDir, err := filex.EnsureDir(cfg.TmpDir)
	if err != nil {
		return nil, fmt.Errorf("tmp dir error: %w", err)
	}

	store, staticDir, err := newAvatarStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sender := newMailer(cfg, logger.With("module", "mailer"))

	us := services.NewUserService(db, rm, sender, logger.With("module", "users"), cfg)
	as := services.NewAvatarService(db, rm, store, cfg.AvatarSize, cfg.AvatarMaxEdge, logger.With("module", "avatars"))
	cs := services.NewContactService(db, rm, logger.With("module", "contacts"))

	opts := rest.Options{Addr: cfg.EndpointAddrHTTP, TmpDir: tmpDir, AvatarDir: staticDir}
	return rest.NewServer(opts, logger.With("module", "http"), us, as, cs), nil
}

// newAvatarStore also returns the directory to serve statically, empty when
// avatars live in S3.
func newAvatarStore(ctx context.Context, cfg *config.Config) (storage.AvatarStore, string, error) {
	switch cfg.AvatarStorage {
	case config.AvatarStorageLocal:
		s, err := storage.NewLocalStore(cfg.AvatarDir, avatarURLPrefix)
		if err != nil {
			return nil, "", fmt.Errorf("avatar dir error: %w", err)
		}
		return s, s.Dir(), nil
	case config.AvatarStorageS3:
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		})
		if err != nil {
			return nil, "", fmt.Errorf("s3 init error: %w", err)
		}
		return s, "", nil
	default:
		return nil, "", fmt.Errorf("unknown avatar storage %q", cfg.AvatarStorage)
	}
}

func newMailer(cfg *config.Config, logger logging.Logger) mailer.Sender {
	if cfg.SMTPUser == "" {
		return mailer.NewLogSender(logger)
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, "http server error", "error", err)
			runErr = err
			cancelFunc()
		}
	}()
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
