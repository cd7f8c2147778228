package di

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/my-store/api/internal/platform/auth"
	"github.com/my-store/api/internal/platform/config"
	"github.com/my-store/api/internal/platform/requestctx"
	"github.com/my-store/api/internal/repositories"
	"github.com/my-store/api/internal/repositories/memory"
	"github.com/my-store/api/internal/services"
)

// Repositories bundles the storage contracts the services depend on.
type Repositories struct {
	Products repositories.ProductRepository
	Carts    repositories.CartRepository
	Checkout repositories.CheckoutRepository
	Sessions repositories.SessionRepository
}

// NewMemoryRepositories assembles the in-memory stores with the seeded catalog.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Products: memory.NewProductRepository(memory.SeedCatalog()),
		Carts:    memory.NewCartRepository(),
		Checkout: memory.NewCheckoutRepository(),
		Sessions: memory.NewSessionRepository(),
	}
}

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Catalog  services.CatalogService
	Cart     services.CartService
	Checkout services.CheckoutService
	Identity services.IdentityService
}

// Container wires repositories, services, and session authentication for runtime use.
type Container struct {
	Config       config.Config
	Logger       *zap.Logger
	Repositories Repositories
	Services     Services
	Tokens       *auth.TokenManager
	Authn        *auth.Authenticator
}

// NewContainer constructs the runtime dependencies on top of the provided repositories.
func NewContainer(cfg config.Config, logger *zap.Logger, repos Repositories) (*Container, error) {
	if logger == nil {
		logger = requestctx.NoopLogger()
	}

	svc, err := buildServices(cfg, logger, repos)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.Session.Secret,
		auth.WithTokenTTL(cfg.Session.TokenTTL),
		auth.WithTokenIssuer(cfg.Session.Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("build token manager: %w", err)
	}

	authn, err := auth.NewAuthenticator(tokens, sessionLoader(repos.Sessions))
	if err != nil {
		return nil, fmt.Errorf("build authenticator: %w", err)
	}

	return &Container{
		Config:       cfg,
		Logger:       logger,
		Repositories: repos,
		Services:     svc,
		Tokens:       tokens,
		Authn:        authn,
	}, nil
}

func buildServices(cfg config.Config, logger *zap.Logger, repos Repositories) (Services, error) {
	var svc Services

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:        repos.Products,
		DefaultPageSize: cfg.Catalog.DefaultPageSize,
		MaxPageSize:     cfg.Catalog.MaxPageSize,
		Logger:          serviceLogger(logger, "catalog"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:    repos.Carts,
		Products: repos.Products,
		Clock:    time.Now,
		Logger:   serviceLogger(logger, "cart"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:    repos.Carts,
		Checkout: repos.Checkout,
		Clock:    time.Now,
		Logger:   serviceLogger(logger, "checkout"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	identitySvc, err := services.NewIdentityService(services.IdentityServiceDeps{
		Sessions: repos.Sessions,
		Products: repos.Products,
		Clock:    time.Now,
		Logger:   serviceLogger(logger, "identity"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build identity service: %w", err)
	}
	svc.Identity = identitySvc

	return svc, nil
}

// sessionLoader adapts the session repository into the identity resolution the
// auth middleware expects.
func sessionLoader(sessions repositories.SessionRepository) auth.SessionLoader {
	return func(ctx context.Context, sessionID string) (*auth.Identity, error) {
		session, err := sessions.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		identity := &auth.Identity{SessionID: session.ID}
		if session.User != nil {
			identity.UserID = session.User.ID
			identity.Email = session.User.Email
			identity.IsSeller = session.User.IsSeller
		}
		return identity, nil
	}
}

// serviceLogger bridges service log callbacks onto the request-scoped zap
// logger, falling back to the process logger outside a request.
func serviceLogger(base *zap.Logger, component string) func(context.Context, string, map[string]any) {
	return func(ctx context.Context, msg string, fields map[string]any) {
		logger := requestctx.Logger(ctx)
		if logger == requestctx.NoopLogger() && base != nil {
			logger = base
		}
		zapFields := make([]zap.Field, 0, len(fields)+1)
		zapFields = append(zapFields, zap.String("component", component))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Info(msg, zapFields...)
	}
}
