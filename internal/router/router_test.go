package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"github.com/mathieu-neron/ProductVote/productvote-go/internal/abuse"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/handler"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/identity"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/model"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/ratelimit"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/repository"
	"github.com/mathieu-neron/ProductVote/productvote-go/internal/service"
)

const testSecret = "router-test-secret"

var (
	alice = model.Actor{UserID: "0b6f3a52-9f1e-4d7c-8a6b-5c4d3e2f1a01", Email: "alice@example.com", EmailVerified: true}
	bob   = model.Actor{UserID: "0b6f3a52-9f1e-4d7c-8a6b-5c4d3e2f1a02", Email: "bob@example.com", EmailVerified: true}
)

// newTestApp wires the full stack over an in-memory store.
func newTestApp(t *testing.T, general ratelimit.Limiter) *fiber.App {
	t.Helper()
	store := repository.NewMemoryStore()
	gate := abuse.NewGate(
		ratelimit.NewMemoryLimiter(ratelimit.VotePolicy),
		ratelimit.NewMemoryLimiter(ratelimit.SubmissionPolicy),
		abuse.NewEvaluator(store, store, store),
		nil,
	)
	profiles := service.NewProfileService(store)

	app := fiber.New()
	Setup(app, &Handlers{
		Health:   handler.NewHealthHandler(nil, nil),
		Product:  handler.NewProductHandler(service.NewProductService(store, store, profiles, gate, nil, service.ProductOptions{AutoVerify: true}, zerolog.Nop())),
		Vote:     handler.NewVoteHandler(service.NewVoteService(store, store, profiles, gate, nil, zerolog.Nop())),
		Category: handler.NewCategoryHandler(service.NewCategoryService(store, nil)),
		Profile:  handler.NewProfileHandler(profiles),
	}, Options{
		CORSOrigins: "*",
		Verifier:    identity.NewVerifier(testSecret),
		General:     general,
	})
	return app
}

func token(t *testing.T, a model.Actor) string {
	t.Helper()
	tok, err := identity.NewVerifier(testSecret).Sign(a, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func do(t *testing.T, app *fiber.App, method, path, body string, as *model.Actor) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *as))
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

const kettleDraft = `{"name":"Steel Kettle","description":"A quiet stainless steel kettle that boils fast.","category":["home-kitchen"]}`

func TestVoteLifecycle(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/api/products", kettleDraft, &alice)
	if status != http.StatusCreated {
		t.Fatalf("submit: status %d body %v", status, body)
	}
	id, _ := body["id"].(string)
	if id == "" || body["verified"] != true {
		t.Fatalf("submit body = %v", body)
	}
	votePath := "/api/products/" + id + "/vote"

	status, body = do(t, app, http.MethodPost, votePath, "", &bob)
	if status != http.StatusCreated || body["totalVotes"] != float64(1) {
		t.Fatalf("cast: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, votePath, "", &bob)
	if status != http.StatusConflict || errorCode(body) != "CONFLICT" {
		t.Errorf("second cast: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodGet, "/api/products/"+id, "", &bob)
	if status != http.StatusOK || body["userVoted"] != true || body["totalVotes"] != float64(1) {
		t.Errorf("get as voter: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodGet, "/api/me/votes", "", &bob)
	if votes, _ := body["votes"].([]any); status != http.StatusOK || len(votes) != 1 {
		t.Errorf("my votes: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodDelete, votePath, "", &bob)
	if status != http.StatusOK || body["totalVotes"] != float64(0) {
		t.Errorf("retract: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodDelete, votePath, "", &bob)
	if status != http.StatusNotFound || errorCode(body) != "NOT_FOUND" {
		t.Errorf("second retract: status %d body %v", status, body)
	}
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t, nil)
	const id = "0b6f3a52-9f1e-4d7c-8a6b-5c4d3e2f1aff"

	routes := []struct{ method, path, body string }{
		{http.MethodPost, "/api/products", kettleDraft},
		{http.MethodPost, "/api/products/" + id + "/vote", ""},
		{http.MethodDelete, "/api/products/" + id + "/vote", ""},
		{http.MethodGet, "/api/me", ""},
		{http.MethodGet, "/api/me/votes", ""},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			status, body := do(t, app, r.method, r.path, r.body, nil)
			if status != http.StatusUnauthorized || errorCode(body) != "UNAUTHORIZED" {
				t.Errorf("status %d body %v", status, body)
			}
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/health/live", 200},
		{"/health/ready", 200},
		{"/metrics", 200},
		{"/api/products", 200},
		{"/api/products?category=books&sortBy=name&timeRange=month", 200},
		{"/api/products/search?q=kettle", 200},
		{"/api/products/search", 400},
		{"/api/products/trending", 200},
		{"/api/products/not-a-uuid", 400},
		{"/api/products/0b6f3a52-9f1e-4d7c-8a6b-5c4d3e2f1aff", 404},
		{"/api/products?sortBy=price", 400},
		{"/api/categories", 200},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestSubmitValidation(t *testing.T) {
	app := newTestApp(t, nil)

	status, body := do(t, app, http.MethodPost, "/api/products", `{"name":"","description":"x","category":["books"]}`, &alice)
	if status != http.StatusBadRequest || errorCode(body) != "INVALID_FIELD" {
		t.Errorf("empty name: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodPost, "/api/products", `{not json`, &alice)
	if status != http.StatusBadRequest || errorCode(body) != "INVALID_BODY" {
		t.Errorf("bad json: status %d body %v", status, body)
	}
}

func TestSearchFindsSubmitted(t *testing.T) {
	app := newTestApp(t, nil)
	if status, body := do(t, app, http.MethodPost, "/api/products", kettleDraft, &alice); status != http.StatusCreated {
		t.Fatalf("submit: %d %v", status, body)
	}

	status, body := do(t, app, http.MethodGet, "/api/products/search?q=KETTLE", "", nil)
	products, _ := body["products"].([]any)
	if status != http.StatusOK || len(products) != 1 || body["endOfResults"] != true {
		t.Errorf("search: status %d body %v", status, body)
	}

	status, body = do(t, app, http.MethodGet, "/api/categories", "", nil)
	cats, _ := body["categories"].([]any)
	if status != http.StatusOK || len(cats) == 0 {
		t.Fatalf("categories: status %d body %v", status, body)
	}
	top, _ := cats[0].(map[string]any)
	if top["slug"] != "home-kitchen" || top["productCount"] != float64(1) {
		t.Errorf("busiest category = %v", top)
	}
}

func TestMe(t *testing.T) {
	app := newTestApp(t, nil)
	status, body := do(t, app, http.MethodGet, "/api/me", "", &alice)
	if status != http.StatusOK || body["id"] != alice.UserID || body["accountAgeDays"] != float64(0) {
		t.Errorf("me: status %d body %v", status, body)
	}
}

func TestGeneralRateLimit(t *testing.T) {
	app := newTestApp(t, ratelimit.NewMemoryLimiter(ratelimit.Policy{Max: 2, Window: time.Minute}))

	for i := 0; i < 2; i++ {
		if status, _ := do(t, app, http.MethodGet, "/api/categories", "", nil); status != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, status)
		}
	}
	status, body := do(t, app, http.MethodGet, "/api/categories", "", nil)
	if status != http.StatusTooManyRequests || errorCode(body) != "RATE_LIMITED" {
		t.Errorf("status %d body %v", status, body)
	}

	// Probes sit outside /api and are never limited.
	if status, _ := do(t, app, http.MethodGet, "/health/live", "", nil); status != http.StatusOK {
		t.Errorf("health status %d", status)
	}
}
