package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"helperhub/internal/adapter/api"
	"helperhub/internal/adapter/api/handler"
	apimiddleware "helperhub/internal/adapter/api/middleware"
	"helperhub/internal/adapter/api/router"
	"helperhub/internal/adapter/repository"
	"helperhub/internal/domain/entity"
	domainrepo "helperhub/internal/domain/repository"
	"helperhub/internal/infrastructure/firebase"
	"helperhub/internal/infrastructure/push"
	"helperhub/internal/infrastructure/ratelimit"
	"helperhub/internal/infrastructure/websocket"
	"helperhub/internal/usecase"
	"helperhub/pkg/config"
	"helperhub/pkg/logger"
)

type repositories struct {
	conversations domainrepo.ConversationRepository
	posts         domainrepo.PostRepository
	users         domainrepo.UserRepository
	notifications domainrepo.NotificationRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	firebaseApp := initFirebase(ctx, cfg)

	var repos repositories
	if cfg.UseMemoryStorage() {
		logger.Warn("Using in-memory storage, data is lost on restart")
		repos = memoryRepositories(cfg)
	} else {
		if firebaseApp == nil {
			log.Fatalf("Firestore storage requires Firebase credentials")
		}
		firestoreClient, err := firebaseApp.Firestore(ctx)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()
		repos = firestoreRepositories(firestoreClient)
	}

	var tokenVerifier apimiddleware.TokenVerifier
	var pusher usecase.PushNotifier
	if firebaseApp != nil {
		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
		tokenVerifier = firebase.NewFirebaseAuthClient(authClient)

		if cfg.PushEnabled {
			messagingClient, err := firebaseApp.Messaging(ctx)
			if err != nil {
				log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
			}
			pusher = push.NewNotifier(messagingClient, cfg.PushIconURL, cfg.PushTimeout)
		}
	}
	if tokenVerifier == nil && !cfg.AuthDisabled {
		log.Fatalf("No token verifier available: configure Firebase or set AUTH_DISABLED=true in development")
	}
	if pusher == nil {
		logger.Warn("Push notifications are disabled")
	}

	rateLimiter := ratelimit.NewRateLimiter()
	rooms := websocket.NewRoomRouter()
	presence := websocket.NewPresenceTracker()

	conversationUseCase := usecase.NewConversationUseCase(repos.conversations, repos.posts)
	deliveryUseCase := usecase.NewDeliveryUseCase(
		conversationUseCase,
		repos.posts,
		repos.users,
		repos.notifications,
		rooms,
		presence,
		pusher,
		rateLimiter,
		usecase.DeliverySettings{
			ClientURL:     cfg.ClientURL,
			PreviewLength: cfg.MessagePreviewLength,
			PushTimeout:   cfg.PushTimeout,
		},
	)
	notificationUseCase := usecase.NewNotificationUseCase(repos.notifications, repos.users, rooms)

	wsManager := websocket.NewManager(rooms, presence, deliveryUseCase, rateLimiter)
	authMiddleware := apimiddleware.NewAuthMiddleware(tokenVerifier, cfg.AuthDisabled)

	handler.Setup(
		handler.NewChatHandler(conversationUseCase, deliveryUseCase),
		handler.NewNotificationHandler(notificationUseCase),
		handler.NewWebSocketHandler(wsManager, authMiddleware, cfg.ClientURL),
		handler.NewHealthHandler(presence, cfg.StorageDriver),
	)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, apimiddleware.DevUserHeader},
	}))

	e.Validator = api.NewValidator()

	router.Setup(e, authMiddleware, apimiddleware.RateLimit(10, 30))

	g, gctx := errgroup.WithContext(ctx)

	rateLimiter.StartCleanupRoutine(gctx)

	g.Go(func() error {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWindow)
		defer cancel()

		err := e.Shutdown(shutdownCtx)

		// let in-flight pushes finish within the same window
		done := make(chan struct{})
		go func() {
			deliveryUseCase.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown window elapsed with pushes still in flight")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("Server stopped")
}

// initFirebase returns nil when no credentials are configured.
func initFirebase(ctx context.Context, cfg *config.Config) *fbapp.App {
	var opt option.ClientOption

	if cfg.FirebaseServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.FirebaseServiceAccountPath); err != nil {
			logger.Warn("Firebase service account file not found: %s", cfg.FirebaseServiceAccountPath)
			return nil
		}
		logger.Info("Using Firebase service account from file: %s", cfg.FirebaseServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.FirebaseServiceAccountPath)
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	return app
}

func firestoreRepositories(client *firestore.Client) repositories {
	return repositories{
		conversations: repository.NewFirestoreConversationRepository(client),
		posts:         repository.NewFirestorePostRepository(client),
		users:         repository.NewFirestoreUserRepository(client),
		notifications: repository.NewFirestoreNotificationRepository(client),
	}
}

// memoryRepositories seeds one post with a seller and a buyer in development so the
// service is usable without a datastore.
func memoryRepositories(cfg *config.Config) repositories {
	posts := repository.NewMemoryPostRepository()
	users := repository.NewMemoryUserRepository()

	if cfg.Environment == "development" {
		now := time.Now()
		users.Save(&entity.User{ID: "demo-seller", Username: "Demo Seller", UpdatedAt: now})
		users.Save(&entity.User{ID: "demo-buyer", Username: "Demo Buyer", UpdatedAt: now})
		posts.Save(&entity.Post{
			ID:          "demo-post",
			Title:       "Help moving a couch",
			UserID:      "demo-seller",
			PeopleCount: 2,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		logger.Info("Seeded demo-post owned by demo-seller")
	}

	return repositories{
		conversations: repository.NewMemoryConversationRepository(),
		posts:         posts,
		users:         users,
		notifications: repository.NewMemoryNotificationRepository(),
	}
}
