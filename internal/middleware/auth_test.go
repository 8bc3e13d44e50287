package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
)

var stubActor = model.Actor{UserID: "7d1e0c0a-3b8f-4c55-9a43-2f7b8e9d1c11", Email: "a@example.com", EmailVerified: true}

// stubVerifier accepts the literal token "good".
type stubVerifier struct{}

func (stubVerifier) Verify(raw string) (model.Actor, error) {
	if raw == "good" {
		return stubActor, nil
	}
	return model.Actor{}, errors.New("invalid token")
}

func authApp(mw ...fiber.Handler) *fiber.App {
	app := fiber.New()
	for _, h := range mw {
		app.Use(h)
	}
	app.Get("/", func(c fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(actor.UserID)
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	app := authApp(RequireAuth(stubVerifier{}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer good", fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic good", fiber.StatusUnauthorized},
		{"invalid token", "Bearer bad", fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	app := authApp(OptionalAuth(stubVerifier{}))

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"valid token", "Bearer good", stubActor.UserID},
		{"no token", "", "anonymous"},
		{"invalid token is ignored", "Bearer bad", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			body := make([]byte, 64)
			n, _ := resp.Body.Read(body)
			if got := string(body[:n]); got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAuthReusesOptionalActor(t *testing.T) {
	calls := 0
	v := countingVerifier{calls: &calls}
	app := authApp(OptionalAuth(v), RequireAuth(v))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	if _, err := app.Test(req); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("token verified %d times, want 1", calls)
	}
}

type countingVerifier struct{ calls *int }

func (v countingVerifier) Verify(raw string) (model.Actor, error) {
	*v.calls++
	return stubVerifier{}.Verify(raw)
}
