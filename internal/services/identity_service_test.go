package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/my-store/api/internal/repositories/memory"
)

func newTestIdentityService(t *testing.T) IdentityService {
	t.Helper()

	sequence := 0
	service, err := NewIdentityService(IdentityServiceDeps{
		Sessions: memory.NewSessionRepository(),
		Products: memory.NewProductRepository(testProducts()),
		Clock:    testClock,
		IDGenerator: func() string {
			sequence++
			return string(rune('a'+sequence-1)) + "00000000000000000000000000"
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return service
}

func startSession(t *testing.T, service IdentityService) string {
	t.Helper()
	session, err := service.CreateGuestSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return session.ID
}

func TestCreateGuestSession(t *testing.T) {
	service := newTestIdentityService(t)

	session, err := service.CreateGuestSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected session id to be assigned")
	}
	if session.User != nil {
		t.Fatal("guest session should have no user")
	}
	if !session.CreatedAt.Equal(testNow) {
		t.Fatalf("expected session timestamped with clock, got %s", session.CreatedAt)
	}
}

func TestLoginFabricatesDemoProfile(t *testing.T) {
	service := newTestIdentityService(t)
	sid := startSession(t, service)

	session, err := service.Login(context.Background(), LoginCommand{
		SessionID: sid,
		Email:     "dana.smith@example.com",
		Password:  "hunter2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := session.User
	if user == nil {
		t.Fatal("expected signed-in user")
	}
	if user.Name != "dana.smith" {
		t.Fatalf("expected name from email local part, got %q", user.Name)
	}
	if user.Email != "dana.smith@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}
	if user.Rating != 4.8 || user.Reviews != 234 {
		t.Fatalf("unexpected demo rating %v / %d", user.Rating, user.Reviews)
	}
	if !user.JoinDate.Equal(time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected join date %s", user.JoinDate)
	}
	if user.Location != "New York, NY" {
		t.Fatalf("unexpected location %q", user.Location)
	}
	if user.IsSeller {
		t.Fatal("login should not produce a seller account")
	}
}

func TestLoginRejectsBlankCredentials(t *testing.T) {
	service := newTestIdentityService(t)
	sid := startSession(t, service)

	cases := []LoginCommand{
		{SessionID: sid, Email: "", Password: "pw"},
		{SessionID: sid, Email: "a@b.c", Password: ""},
		{SessionID: sid, Email: "   ", Password: "   "},
	}
	for _, cmd := range cases {
		if _, err := service.Login(context.Background(), cmd); !errors.Is(err, ErrIdentityBadCredentials) {
			t.Fatalf("expected ErrIdentityBadCredentials for %#v, got %v", cmd, err)
		}
	}
}

func TestRegisterStartsFreshProfile(t *testing.T) {
	service := newTestIdentityService(t)
	sid := startSession(t, service)

	session, err := service.Register(context.Background(), RegisterCommand{
		SessionID: sid,
		Name:      "Dana Smith",
		Email:     "dana@example.com",
		Password:  "hunter2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user := session.User
	if user == nil {
		t.Fatal("expected signed-in user")
	}
	if user.Name != "Dana Smith" {
		t.Fatalf("unexpected name %q", user.Name)
	}
	if user.Rating != 0 || user.Reviews != 0 {
		t.Fatalf("new accounts should start unrated, got %v / %d", user.Rating, user.Reviews)
	}
	if !user.JoinDate.Equal(testNow) {
		t.Fatalf("expected join date from clock, got %s", user.JoinDate)
	}
}

func TestRegisterSellerRequiresBusinessDetails(t *testing.T) {
	service := newTestIdentityService(t)
	sid := startSession(t, service)

	_, err := service.Register(context.Background(), RegisterCommand{
		SessionID: sid,
		Name:      "Dana Smith",
		Email:     "dana@example.com",
		Password:  "hunter2",
		IsSeller:  true,
	})
	if !errors.Is(err, ErrIdentityInvalidInput) {
		t.Fatalf("expected ErrIdentityInvalidInput, got %v", err)
	}

	session, err := service.Register(context.Background(), RegisterCommand{
		SessionID:       sid,
		Name:            "Dana Smith",
		Email:           "dana@example.com",
		Password:        "hunter2",
		IsSeller:        true,
		BusinessName:    "Dana's Finds",
		BusinessAddress: "456 Market St",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User == nil || !session.User.IsSeller {
		t.Fatalf("expected seller account, got %#v", session.User)
	}
}

func TestLogoutClearsUserAndLikes(t *testing.T) {
	service := newTestIdentityService(t)
	ctx := context.Background()
	sid := startSession(t, service)

	if _, err := service.Login(ctx, LoginCommand{SessionID: sid, Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := service.ToggleLikedProduct(ctx, ToggleLikedProductCommand{SessionID: sid, ProductID: "prod-001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := service.Logout(ctx, sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User != nil {
		t.Fatal("expected user cleared on logout")
	}
	if len(session.LikedProductIDs) != 0 {
		t.Fatalf("expected liked products cleared, got %#v", session.LikedProductIDs)
	}
}

func TestToggleLikedProductGuestIsNoOp(t *testing.T) {
	service := newTestIdentityService(t)
	sid := startSession(t, service)

	session, err := service.ToggleLikedProduct(context.Background(), ToggleLikedProductCommand{SessionID: sid, ProductID: "prod-001"})
	if err != nil {
		t.Fatalf("expected silent no-op for guests, got %v", err)
	}
	if len(session.LikedProductIDs) != 0 {
		t.Fatalf("guest toggle should not record likes, got %#v", session.LikedProductIDs)
	}
}

func TestToggleLikedProductFlipsState(t *testing.T) {
	service := newTestIdentityService(t)
	ctx := context.Background()
	sid := startSession(t, service)

	if _, err := service.Login(ctx, LoginCommand{SessionID: sid, Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	session, err := service.ToggleLikedProduct(ctx, ToggleLikedProductCommand{SessionID: sid, ProductID: "prod-001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !session.Liked("prod-001") {
		t.Fatalf("expected prod-001 liked, got %#v", session.LikedProductIDs)
	}

	session, err = service.ToggleLikedProduct(ctx, ToggleLikedProductCommand{SessionID: sid, ProductID: "prod-001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Liked("prod-001") {
		t.Fatalf("expected prod-001 unliked, got %#v", session.LikedProductIDs)
	}
}

func TestListLikedProductsSkipsUnknownIDs(t *testing.T) {
	service := newTestIdentityService(t)
	ctx := context.Background()
	sid := startSession(t, service)

	if _, err := service.Login(ctx, LoginCommand{SessionID: sid, Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, id := range []string{"prod-001", "prod-gone", "prod-003"} {
		if _, err := service.ToggleLikedProduct(ctx, ToggleLikedProductCommand{SessionID: sid, ProductID: id}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	products, err := service.ListLikedProducts(ctx, sid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 resolvable products, got %d", len(products))
	}
	if products[0].ID != "prod-001" || products[1].ID != "prod-003" {
		t.Fatalf("unexpected products %#v", products)
	}
}

func TestCurrentUserUnknownSession(t *testing.T) {
	service := newTestIdentityService(t)

	if _, err := service.CurrentUser(context.Background(), "sess-missing"); !errors.Is(err, ErrIdentitySessionNotFound) {
		t.Fatalf("expected ErrIdentitySessionNotFound, got %v", err)
	}
}
