// Package rest exposes the contact book over HTTP using fiber.
package rest

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context, user *models.User) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Current(ctx context.Context, user *models.User) (*models.User, error)
	UpdateSubscription(ctx context.Context, user *models.User, subscription models.Subscription) (*models.User, error)
	RequestVerification(ctx context.Context, email string) error
	ConfirmVerification(ctx context.Context, token string) error
}

type AvatarService interface {
	Ingest(ctx context.Context, user *models.User, tmpPath string) (string, error)
}

type ContactService interface {
	List(ctx context.Context, owner *models.User, filter models.ContactFilter) ([]*models.Contact, error)
	Get(ctx context.Context, owner *models.User, id string) (*models.Contact, error)
	Create(ctx context.Context, owner *models.User, c models.Contact) (*models.Contact, error)
	Update(ctx context.Context, owner *models.User, id string, patch models.ContactPatch) (*models.Contact, error)
	SetFavorite(ctx context.Context, owner *models.User, id string, favorite *bool) (*models.Contact, error)
	Remove(ctx context.Context, owner *models.User, id string) (*models.Contact, error)
}

// Options configures a Server. AvatarDir is served under /avatars when set.
type Options struct {
	Addr      string
	TmpDir    string
	AvatarDir string
}

type Server struct {
	app  *fiber.App
	addr string
	log  logging.Logger
}

func NewServer(opts Options, log logging.Logger, users UserService, avatars AvatarService, contacts ContactService) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "contactbook",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	reg := prometheus.NewRegistry()
	m := newMetrics(reg)

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(observe(log, m))
	app.Use(cors.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	if opts.AvatarDir != "" {
		app.Static("/avatars", opts.AvatarDir, fiber.Static{Browse: false})
	}

	gate := accessGate(users)

	uh := &userHandlers{users: users, avatars: avatars, tmpDir: opts.TmpDir, log: log}
	user := app.Group("/user")
	user.Post("/register", uh.register)
	user.Post("/login", uh.login)
	user.Get("/verify/:token", uh.confirmVerification)
	user.Post("/verify", uh.requestVerification)
	user.Post("/logout", gate, uh.logout)
	user.Get("/current", gate, uh.current)
	user.Patch("/subscription", gate, uh.updateSubscription)
	user.Patch("/avatars", gate, uh.updateAvatar)

	ch := &contactHandlers{contacts: contacts}
	// Gate each route so unmatched paths under /contacts still fall through to 404.
	c := app.Group("/contacts")
	c.Get("/", gate, ch.list)
	c.Post("/", gate, ch.create)
	c.Get("/:id", gate, ch.get)
	c.Put("/:id", gate, ch.update)
	c.Patch("/:id/favorite", gate, ch.setFavorite)
	c.Delete("/:id", gate, ch.remove)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
	})

	return &Server{app: app, addr: opts.Addr, log: log}
}

// App exposes the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "http server listening", "addr", s.addr)
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info(ctx, "http server shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
