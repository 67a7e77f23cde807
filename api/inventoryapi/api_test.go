package inventoryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/rio-inventory/inventory/auth"
	"github.com/rio-inventory/inventory/storage"
	"github.com/rio-inventory/inventory/storage/model"
)

// staticValidator accepts the tokens it knows
type staticValidator map[string]auth.Claims

func (v staticValidator) Validate(_ context.Context, token string) (*auth.Claims, error) {
	if token == "down" {
		return nil, errors.Wrap(auth.ErrServiceUnavailable, "provider down")
	}
	c, ok := v[token]
	if !ok {
		return nil, errors.Wrap(auth.ErrUnauthenticated, "unknown token")
	}
	return &c, nil
}

const aliceToken = "alice-token"

type testAPI struct {
	t       *testing.T
	app     *fiber.App
	storage *storage.Storage
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	s, err := storage.NewStorage(
		storage.Config{
			Driver: storage.DriverSQLite,
			DSN:    filepath.Join(t.TempDir(), "api.db"),
		},
	)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	backs := s.Backends()
	authn := auth.NewAuthenticatorWithValidator(
		staticValidator{
			aliceToken: {
				Subject: "oid-alice",
				Email:   "alice@example.com",
				Name:    "Alice Example",
			},
		}, backs.Users,
	)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	if err = Register(app.Group("/api/v1"), backs, authn, &Options{ServerURL: "https://inventory.example/api/v1"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return &testAPI{
		t:       t,
		app:     app,
		storage: s,
	}
}

// do performs a request as alice and decodes the json response into out
func (a *testAPI) do(method, path string, body any, out any) int {
	a.t.Helper()
	return a.doWithToken(aliceToken, method, path, body, out)
}

func (a *testAPI) doWithToken(token, method, path string, body any, out any) int {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	res, err := a.app.Test(req, -1)
	if err != nil {
		a.t.Fatalf("Request failed: %v", err)
	}
	defer res.Body.Close()
	if out != nil {
		data, err := io.ReadAll(res.Body)
		if err != nil {
			a.t.Fatalf("Failed to read body: %v", err)
		}
		if err = json.Unmarshal(data, out); err != nil {
			a.t.Fatalf("Failed to decode %q: %v", data, err)
		}
	}
	return res.StatusCode
}

// references creates one row of every reference entity and returns a
// complete asset payload pointing at them
func (a *testAPI) references() map[string]any {
	a.t.Helper()
	ids := make(map[string]any)
	for key, path := range map[string]string{
		"asset_type_id":   "/api/v1/asset-types/",
		"manufacturer_id": "/api/v1/manufacturers/",
		"status_id":       "/api/v1/statuses/",
		"location_id":     "/api/v1/locations/",
	} {
		var created struct {
			ID uint `json:"id"`
		}
		if status := a.do(http.MethodPost, path, map[string]string{"name": "Item of " + key}, &created); status != fiber.StatusCreated {
			a.t.Fatalf("Create %s returned %d", path, status)
		}
		ids[key] = created.ID
	}
	return ids
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/assets/", nil)
	res, err := api.app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", res.StatusCode)
	}
	if got := res.Header.Get(fiber.HeaderWWWAuthenticate); got != "Bearer" {
		t.Fatalf("Expected WWW-Authenticate Bearer, got %q", got)
	}
	var body ErrorResponse
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Error != ErrorKindUnauthenticated {
		t.Fatalf("Expected %s, got %+v", ErrorKindUnauthenticated, body)
	}
}

func TestInvalidTokenAndUnavailableProvider(t *testing.T) {
	api := newTestAPI(t)
	if status := api.doWithToken("bogus", http.MethodGet, "/api/v1/assets/", nil, nil); status != fiber.StatusUnauthorized {
		t.Fatalf("Expected 401 for an unknown token, got %d", status)
	}
	var body ErrorResponse
	if status := api.doWithToken("down", http.MethodGet, "/api/v1/assets/", nil, &body); status != fiber.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", status)
	}
	if body.Error != ErrorKindUnavailable {
		t.Fatalf("Expected %s, got %+v", ErrorKindUnavailable, body)
	}
}

func TestUsersMeProvisionsOnce(t *testing.T) {
	api := newTestAPI(t)
	var me model.User
	if status := api.do(http.MethodGet, "/api/v1/users/me", nil, &me); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if me.AzureOID != "oid-alice" || me.DisplayName != "Alice Example" {
		t.Fatalf("Unexpected user %+v", me)
	}
	var again model.User
	api.do(http.MethodGet, "/api/v1/users/me", nil, &again)
	if again.ID != me.ID {
		t.Fatalf("Expected the same user, got %d and %d", me.ID, again.ID)
	}
	var users []model.User
	api.do(http.MethodGet, "/api/v1/users/", nil, &users)
	if len(users) != 1 {
		t.Fatalf("Expected one user, got %d", len(users))
	}
}

func TestAssetLifecycle(t *testing.T) {
	api := newTestAPI(t)
	payload := api.references()
	payload["inventory_number"] = "IT-0001"
	payload["hostname"] = "nb-0001"

	var created model.Asset
	if status := api.do(http.MethodPost, "/api/v1/assets/", payload, &created); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}
	if created.InventoryNumber != "IT-0001" {
		t.Fatalf("Unexpected asset %+v", created)
	}
	path := "/api/v1/assets/" + itoa(created.ID)

	var updated model.Asset
	status := api.do(http.MethodPut, path, map[string]any{"hostname": "nb-0002", "model": nil}, &updated)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if updated.Hostname == nil || *updated.Hostname != "nb-0002" {
		t.Fatalf("Expected the new hostname, got %+v", updated.Hostname)
	}

	var logs []model.AssetLog
	if status = api.do(http.MethodGet, path+"/logs", nil, &logs); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(logs) != 2 {
		t.Fatalf("Expected CREATE and one UPDATE entry, got %d", len(logs))
	}
	if logs[0].Action != model.LogActionUpdate || *logs[0].FieldChanged != "hostname" {
		t.Fatalf("Expected the hostname update first, got %+v", logs[0])
	}
	if logs[1].Action != model.LogActionCreate {
		t.Fatalf("Expected the CREATE entry last, got %+v", logs[1])
	}

	var page model.AssetPage
	if status = api.do(http.MethodGet, "/api/v1/assets/?search=nb-0002&limit=1", nil, &page); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if page.Total != 1 || len(page.Items) != 1 {
		t.Fatalf("Expected one match, got %+v", page)
	}

	if status = api.do(http.MethodDelete, path, nil, nil); status != fiber.StatusNoContent {
		t.Fatalf("Expected 204, got %d", status)
	}
	var body ErrorResponse
	if status = api.do(http.MethodGet, path, nil, &body); status != fiber.StatusNotFound {
		t.Fatalf("Expected 404 after delete, got %d", status)
	}
	if body.Error != ErrorKindNotFound {
		t.Fatalf("Expected %s, got %+v", ErrorKindNotFound, body)
	}
}

func TestAssetValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	var body ErrorResponse
	status := api.do(http.MethodPost, "/api/v1/assets/", map[string]any{"inventory_number": "IT-1"}, &body)
	if status != fiber.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", status)
	}
	if body.Error != ErrorKindValidation || len(body.Details) != 4 {
		t.Fatalf("Expected the four missing references as details, got %+v", body)
	}

	body = ErrorResponse{}
	if status = api.do(http.MethodGet, "/api/v1/assets/?order_by=price", nil, &body); status != fiber.StatusBadRequest {
		t.Fatalf("Expected 400 for an unknown sort key, got %d", status)
	}
	if len(body.Details) != len(model.AssetSortKeys()) {
		t.Fatalf("Expected the allowed sort keys as details, got %+v", body)
	}

	if status = api.do(http.MethodGet, "/api/v1/assets/?limit=-1", nil, nil); status != fiber.StatusBadRequest {
		t.Fatalf("Expected 400 for a negative limit, got %d", status)
	}
	if status = api.do(http.MethodGet, "/api/v1/assets/abc", nil, nil); status != fiber.StatusBadRequest {
		t.Fatalf("Expected 400 for a malformed id, got %d", status)
	}
}

func TestZeroLimitReturnsEmptyPage(t *testing.T) {
	api := newTestAPI(t)
	payload := api.references()
	payload["inventory_number"] = "IT-0001"
	var created model.Asset
	if status := api.do(http.MethodPost, "/api/v1/assets/", payload, &created); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}

	var page model.AssetPage
	if status := api.do(http.MethodGet, "/api/v1/assets/?limit=0", nil, &page); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(page.Items) != 0 || page.Total != 1 {
		t.Fatalf("Expected no items and a total of 1, got %+v", page)
	}
	page = model.AssetPage{}
	if status := api.do(http.MethodGet, "/api/v1/assets/", nil, &page); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(page.Items) != 1 {
		t.Fatalf("Expected the default page without a limit, got %+v", page)
	}

	var locations []model.Location
	if status := api.do(http.MethodGet, "/api/v1/locations/?limit=0", nil, &locations); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(locations) != 0 {
		t.Fatalf("Expected no locations, got %d", len(locations))
	}
	if status := api.do(http.MethodGet, "/api/v1/locations/", nil, &locations); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(locations) != 1 {
		t.Fatalf("Expected one location without a limit, got %d", len(locations))
	}

	var logs []model.AssetLog
	path := "/api/v1/assets/" + itoa(created.ID) + "/logs?limit=0"
	if status := api.do(http.MethodGet, path, nil, &logs); status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if len(logs) != 0 {
		t.Fatalf("Expected no log entries, got %d", len(logs))
	}
	if status := api.do(http.MethodGet, "/api/v1/assets/999/logs?limit=0", nil, nil); status != fiber.StatusNotFound {
		t.Fatalf("Expected 404 for an unknown asset, got %d", status)
	}
}

func TestReferenceNameCannotBeCleared(t *testing.T) {
	api := newTestAPI(t)
	payload := api.references()
	path := "/api/v1/manufacturers/" + itoa(payload["manufacturer_id"].(uint))

	for _, body := range []map[string]any{{"name": nil}, {"name": ""}} {
		var res ErrorResponse
		if status := api.do(http.MethodPut, path, body, &res); status != fiber.StatusBadRequest {
			t.Fatalf("Expected 400 for %v, got %d", body, status)
		}
		if res.Error != ErrorKindValidation {
			t.Fatalf("Expected %s, got %+v", ErrorKindValidation, res)
		}
	}
}

func TestReferenceDeleteConflict(t *testing.T) {
	api := newTestAPI(t)
	payload := api.references()
	payload["inventory_number"] = "IT-0001"
	if status := api.do(http.MethodPost, "/api/v1/assets/", payload, nil); status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", status)
	}

	var body ErrorResponse
	path := "/api/v1/manufacturers/" + itoa(payload["manufacturer_id"].(uint))
	if status := api.do(http.MethodDelete, path, nil, &body); status != fiber.StatusConflict {
		t.Fatalf("Expected 409, got %d", status)
	}
	if body.Error != ErrorKindConflict {
		t.Fatalf("Expected %s, got %+v", ErrorKindConflict, body)
	}

	var other struct {
		ID uint `json:"id"`
	}
	api.do(http.MethodPost, "/api/v1/manufacturers/", map[string]string{"name": "Unused"}, &other)
	if status := api.do(http.MethodDelete, "/api/v1/manufacturers/"+itoa(other.ID), nil, nil); status != fiber.StatusNoContent {
		t.Fatalf("Expected 204 for an unreferenced manufacturer, got %d", status)
	}

	if status := api.do(http.MethodPost, "/api/v1/statuses/", map[string]string{"name": "Item of status_id"}, nil); status != fiber.StatusConflict {
		t.Fatalf("Expected 409 for a duplicate name, got %d", status)
	}
}

func TestOpenAPIDocumentIsPublic(t *testing.T) {
	api := newTestAPI(t)
	res, err := api.app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}
	data, _ := io.ReadAll(res.Body)
	if !bytes.Contains(data, []byte("https://inventory.example/api/v1")) {
		t.Fatal("Expected the configured server url in the document")
	}
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get(
		"/", func(*fiber.Ctx) error {
			return errors.New("database password is hunter2")
		},
	)
	res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if res.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", res.StatusCode)
	}
	var body ErrorResponse
	_ = json.NewDecoder(res.Body).Decode(&body)
	if body.ErrorDescription != "An unexpected error occurred" {
		t.Fatalf("Expected an opaque description, got %q", body.ErrorDescription)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
