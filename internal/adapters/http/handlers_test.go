package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/soundpin/soundpin/internal/adapters/http"
	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/ports"
	"github.com/soundpin/soundpin/internal/core/usecases"
)

// ---- Mock repository ----

type mockPinRepo struct {
	createFn        func(ctx context.Context, pin *domain.Pin) (*domain.Pin, error)
	getByIDFn       func(ctx context.Context, id string) (*domain.Pin, error)
	updateFn        func(ctx context.Context, id string, patch ports.UpdatePatch) (*domain.Pin, error)
	deleteFn        func(ctx context.Context, id string) (bool, error)
	queryByBoundsFn func(ctx context.Context, b domain.GeoBounds, limit int, cats []string) ([]domain.Pin, error)
	queryByFilterFn func(ctx context.Context, f ports.PinFilter) ([]domain.Pin, error)
	listByOwnerFn   func(ctx context.Context, ownerID string) ([]domain.Pin, error)
}

func (m *mockPinRepo) Create(ctx context.Context, pin *domain.Pin) (*domain.Pin, error) {
	if m.createFn != nil {
		return m.createFn(ctx, pin)
	}
	return pin, nil
}
func (m *mockPinRepo) GetByID(ctx context.Context, id string) (*domain.Pin, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockPinRepo) Update(ctx context.Context, id string, patch ports.UpdatePatch) (*domain.Pin, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch)
	}
	return nil, domain.ErrNotFound
}
func (m *mockPinRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}
func (m *mockPinRepo) QueryByBounds(ctx context.Context, b domain.GeoBounds, limit int, cats []string) ([]domain.Pin, error) {
	if m.queryByBoundsFn != nil {
		return m.queryByBoundsFn(ctx, b, limit, cats)
	}
	return nil, nil
}
func (m *mockPinRepo) QueryByFilter(ctx context.Context, f ports.PinFilter) ([]domain.Pin, error) {
	if m.queryByFilterFn != nil {
		return m.queryByFilterFn(ctx, f)
	}
	return nil, nil
}
func (m *mockPinRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Pin, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

// ---- Test helpers ----

func setupApp(repo *mockPinRepo) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	deps := &handler.Dependencies{
		Pins: usecases.NewPinService(repo, nil, nil),
	}
	handler.SetupRoutes(app, deps)
	return app
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
		RequestID string `json:"requestId"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp interface{ Decode(any) error }) envelope {
	t.Helper()
	var env envelope
	if err := resp.Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

const validPinBody = `{
	"owner_id": "user-1",
	"location": {"lat": 35.6,"lng": 139.7},
	"audio": {"url": "https://cdn.example/a.webm","duration_seconds": 12.5,"format": "webm"}
}`

// ---- Create ----

func TestCreatePin_Success(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("POST", "/v1/pins", strings.NewReader(validPinBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	if !env.Success {
		t.Fatal("expected success envelope")
	}

	var pin domain.Pin
	if err := json.Unmarshal(env.Data, &pin); err != nil {
		t.Fatal(err)
	}
	if pin.ID == "" {
		t.Error("expected assigned pin id")
	}
	if pin.Status != domain.StatusActive {
		t.Errorf("status = %s, want active", pin.Status)
	}
}

func TestCreatePin_ValidationListsAllFields(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	body := `{
		"owner_id": "user-1",
		"location": {"lat": 99,"lng": 200},
		"audio": {"url": "https://cdn.example/a.ogg","duration_seconds": 700,"format": "ogg"}
	}`
	req := httptest.NewRequest("POST", "/v1/pins", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if env.Error.Code != "validation_error" {
		t.Errorf("code = %s, want validation_error", env.Error.Code)
	}
	// lat, lng, duration, and format are all invalid at once.
	if len(env.Error.Details) < 4 {
		t.Errorf("expected all 4 violations reported, got %d", len(env.Error.Details))
	}
}

func TestCreatePin_InvalidJSON(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("POST", "/v1/pins", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Batch ----

func TestBatchCreatePins_PartialSuccess(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	body := fmt.Sprintf(`{"pins": [%s, {"owner_id":"user-1","location":{"lat":99,"lng":0},"audio":{"url":"u","duration_seconds":1,"format":"mp3"}}, %s]}`,
		validPinBody, validPinBody)
	req := httptest.NewRequest("POST", "/v1/pins/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	var meta struct {
		Requested int `json:"requested"`
		Created   int `json:"created"`
	}
	if err := json.Unmarshal(env.Meta, &meta); err != nil {
		t.Fatal(err)
	}
	if meta.Requested != 3 || meta.Created != 2 {
		t.Errorf("meta = %+v, want requested 3 created 2", meta)
	}

	var pins []domain.Pin
	if err := json.Unmarshal(env.Data, &pins); err != nil {
		t.Fatal(err)
	}
	if len(pins) != 2 {
		t.Errorf("expected 2 created pins, got %d", len(pins))
	}
}

func TestBatchCreatePins_EmptyArray(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("POST", "/v1/pins/batch", strings.NewReader(`{"pins": []}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Get / Delete / Report ----

func TestGetPin_NotFound(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("GET", "/v1/pins/nonexistent-id", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	if env.Success || env.Error.Code != "not_found" {
		t.Errorf("expected not_found envelope, got %+v", env.Error)
	}
}

func TestGetPin_Success(t *testing.T) {
	app := setupApp(&mockPinRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Pin, error) {
			return &domain.Pin{ID: id, Title: "rainy alley"}, nil
		},
	})

	req := httptest.NewRequest("GET", "/v1/pins/p1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	var pin domain.Pin
	json.Unmarshal(env.Data, &pin)
	if pin.Title != "rainy alley" {
		t.Errorf("title = %q", pin.Title)
	}
}

func TestDeletePin_NotFound(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("DELETE", "/v1/pins/missing", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeletePin_Success(t *testing.T) {
	app := setupApp(&mockPinRepo{
		deleteFn: func(ctx context.Context, id string) (bool, error) { return true, nil },
	})

	req := httptest.NewRequest("DELETE", "/v1/pins/p1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReportPin_ShortReason(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("POST", "/v1/pins/p1/report", strings.NewReader(`{"reason": "spam"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestReportPin_Success(t *testing.T) {
	var gotStatus *domain.PinStatus
	app := setupApp(&mockPinRepo{
		updateFn: func(ctx context.Context, id string, patch ports.UpdatePatch) (*domain.Pin, error) {
			gotStatus = patch.Status
			return &domain.Pin{ID: id}, nil
		},
	})

	body := `{"reason": "recording contains someone's home address"}`
	req := httptest.NewRequest("POST", "/v1/pins/p1/report", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotStatus == nil || *gotStatus != domain.StatusReported {
		t.Errorf("patch status = %v, want reported", gotStatus)
	}
}

// ---- Nearby ----

func TestNearbyPins_Success(t *testing.T) {
	app := setupApp(&mockPinRepo{
		queryByBoundsFn: func(ctx context.Context, b domain.GeoBounds, limit int, cats []string) ([]domain.Pin, error) {
			return []domain.Pin{{ID: "p1"}}, nil
		},
	})

	req := httptest.NewRequest("GET", "/v1/pins/nearby?north=36&south=35&east=140&west=139", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	var pins []domain.Pin
	json.Unmarshal(env.Data, &pins)
	if len(pins) != 1 {
		t.Errorf("expected 1 pin, got %d", len(pins))
	}
}

func TestNearbyPins_MissingParams(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("GET", "/v1/pins/nearby?north=36&south=35", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// Malformed numbers must be rejected, not silently read as zero.
func TestNearbyPins_MalformedBounds(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("GET", "/v1/pins/nearby?north=abc&south=34&east=140&west=138", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearchPins_MalformedRadius(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("GET", "/v1/pins/search?lat=35&lng=139&radius=wide", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyPins_OutOfRangeBounds(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("GET", "/v1/pins/nearby?north=95&south=35&east=140&west=139", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	if env.Error.Code != "validation_error" {
		t.Errorf("code = %s, want validation_error", env.Error.Code)
	}
}

// ---- Search ----

func TestSearchPins_PartialTrioIgnored(t *testing.T) {
	var gotBounds *domain.GeoBounds
	app := setupApp(&mockPinRepo{
		queryByFilterFn: func(ctx context.Context, f ports.PinFilter) ([]domain.Pin, error) {
			gotBounds = f.Bounds
			return nil, nil
		},
	})

	// lat without lng and radius: legal, location filter silently absent.
	req := httptest.NewRequest("GET", "/v1/pins/search?lat=35.6", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotBounds != nil {
		t.Error("partial trio must not produce a location filter")
	}
}

func TestSearchPins_FullTrio(t *testing.T) {
	var gotBounds *domain.GeoBounds
	app := setupApp(&mockPinRepo{
		queryByFilterFn: func(ctx context.Context, f ports.PinFilter) ([]domain.Pin, error) {
			gotBounds = f.Bounds
			return nil, nil
		},
	})

	req := httptest.NewRequest("GET", "/v1/pins/search?lat=35.6&lng=139.7&radius=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotBounds == nil {
		t.Fatal("full trio must produce a bounding-box filter")
	}
	if gotBounds.North <= 35.6 || gotBounds.South >= 35.6 {
		t.Errorf("bounds do not enclose the center: %+v", gotBounds)
	}
}

func TestSearchPins_BadTimeFormat(t *testing.T) {
	app := setupApp(&mockPinRepo{})

	req := httptest.NewRequest("GET", "/v1/pins/search?start_time=yesterday", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- User pins ----

func TestUserPins_Success(t *testing.T) {
	app := setupApp(&mockPinRepo{
		listByOwnerFn: func(ctx context.Context, ownerID string) ([]domain.Pin, error) {
			if ownerID != "user-7" {
				t.Errorf("owner = %s, want user-7", ownerID)
			}
			return []domain.Pin{{ID: "p1"}, {ID: "p2"}}, nil
		},
	})

	req := httptest.NewRequest("GET", "/v1/users/user-7/pins", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, json.NewDecoder(resp.Body))
	var pins []domain.Pin
	json.Unmarshal(env.Data, &pins)
	if len(pins) != 2 {
		t.Errorf("expected 2 pins, got %d", len(pins))
	}
}
