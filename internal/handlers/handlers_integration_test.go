package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"luxe/internal/assetstore"
	"luxe/internal/handlers"
	"luxe/internal/middleware"
	"luxe/internal/models"
	"luxe/internal/repositories"
	"luxe/internal/services"
	"luxe/internal/validation"
)

const testJWTSecret = "test_jwt_secret"

type testEnv struct {
	app      *fiber.App
	store    *assetstore.MemoryStore
	tokens   *services.TokenService
	userRepo repositories.UserRepository
}

// setupApp wires a Fiber app over an in-memory SQLite database and an
// in-memory asset store.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	// A unique DSN per setup keeps test databases isolated.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Product{}, &models.User{}))

	store := assetstore.NewMemoryStore()
	productRepo := repositories.NewGORMProductRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	validate := validation.New(1000)
	rules := validation.ImageRules{Min: 2, Max: 5}
	tokens := services.NewTokenService(testJWTSecret)
	productService := services.NewProductService(productRepo, store, time.Second)
	accountService := services.NewAccountService(userRepo, tokens, services.NewBcryptHasher(), &dropNotifier{})

	app := fiber.New()
	authRequired := middleware.AuthRequired(tokens)
	adminOnly := middleware.AdminOnly()
	handlers.NewProductHandler(productService, validate, rules).RegisterRoutes(app, authRequired, adminOnly)
	handlers.NewAuthHandler(accountService, validate).RegisterRoutes(app, authRequired)

	return &testEnv{app: app, store: store, tokens: tokens, userRepo: userRepo}
}

// dropNotifier swallows verification emails during tests.
type dropNotifier struct{}

func (dropNotifier) SendVerification(email, token string) error { return nil }

// seedUser persists a verified user with the given role and returns a fresh
// session token for them.
func (e *testEnv) seedUser(t *testing.T, email, role string) string {
	t.Helper()

	hashed, err := services.NewBcryptHasher().Hash("password123")
	assert.NoError(t, err)
	user := &models.User{
		Name:       "Seeded User",
		Email:      email,
		Password:   hashed,
		Role:       role,
		IsVerified: true,
	}
	assert.NoError(t, e.userRepo.Create(user))

	token, err := e.tokens.Issue(services.Claims{UserID: user.ID, Role: role})
	assert.NoError(t, err)
	return token
}

// productRequest builds a multipart product request with the given fields
// and a number of png image parts named "images".
func productRequest(t *testing.T, method, url string, fields map[string]string, imageCount int) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		assert.NoError(t, w.WriteField(key, value))
	}
	for i := 0; i < imageCount; i++ {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="img-%d.png"`, i))
		header.Set("Content-Type", "image/png")
		part, err := w.CreatePart(header)
		assert.NoError(t, err)
		_, err = part.Write([]byte("fake png bytes"))
		assert.NoError(t, err)
	}
	assert.NoError(t, w.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func lampFields() map[string]string {
	return map[string]string{
		"title":       "Desk Lamp",
		"category":    "Electronics",
		"price":       "19.99",
		"description": "A bright lamp for desks and reading areas.",
		"stock":       "10",
	}
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRegisterLoginAndProfileFlow(t *testing.T) {
	env := setupApp(t)

	// Register.
	payload, _ := json.Marshal(map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", data["email"])
	// The password hash must never be serialized.
	_, leaked := data["password"]
	assert.False(t, leaked)

	// Duplicate registration: 400, nothing new created.
	req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Login before verification is rejected.
	loginPayload, _ := json.Marshal(map[string]string{"email": "alice@example.com", "password": "password123"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(loginPayload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["message"], "verify your email")

	// Redeem the verification link.
	stored, err := env.userRepo.GetByEmail("alice@example.com")
	assert.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/verify-email/"+stored.VerificationToken, nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeBody(t, resp)["token"])

	// Login now succeeds and returns a token.
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(loginPayload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := decodeBody(t, resp)["token"].(string)
	assert.NotEmpty(t, token)

	// The token opens the profile endpoint.
	req = httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Without a token the profile is unreachable.
	req = httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateProductAuthorization(t *testing.T) {
	env := setupApp(t)
	userToken := env.seedUser(t, "user@example.com", models.RoleUser)

	// No token: 401.
	req := productRequest(t, http.MethodPost, "/products", lampFields(), 2)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid non-admin token: 403.
	req = productRequest(t, http.MethodPost, "/products", lampFields(), 2)
	req.Header.Set("Authorization", "Bearer "+userToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Expired token: 401.
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   "user-123",
		"role": models.RoleAdmin,
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	expiredString, err := expired.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err)
	req = productRequest(t, http.MethodPost, "/products", lampFields(), 2)
	req.Header.Set("Authorization", "Bearer "+expiredString)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp)["message"], "expired")
}

func TestProductCRUD(t *testing.T) {
	env := setupApp(t)
	adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)

	// Create with two images.
	req := productRequest(t, http.MethodPost, "/products", lampFields(), 2)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	created := body["data"].(map[string]interface{})
	productID := created["id"].(string)
	assert.Len(t, created["images"], 2)
	assert.Equal(t, 2, env.store.Len())

	// Public read endpoints.
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decodeBody(t, resp)["count"])

	req = httptest.NewRequest(http.MethodGet, "/products/"+productID, nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/products/"+uuid.New().String(), nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Partial update without files keeps the image set.
	req = productRequest(t, http.MethodPut, "/products/"+productID, map[string]string{"price": "24.99"}, 0)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, 24.99, updated["price"])
	assert.Equal(t, "Desk Lamp", updated["title"])
	assert.Len(t, updated["images"], 2)

	// Update with a replacement image set swaps the assets.
	req = productRequest(t, http.MethodPut, "/products/"+productID, nil, 3)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, env.store.Len())

	// Delete removes the record and the remote assets.
	req = httptest.NewRequest(http.MethodDelete, "/products/"+productID, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, env.store.Len())

	req = httptest.NewRequest(http.MethodGet, "/products/"+productID, nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProductValidation(t *testing.T) {
	env := setupApp(t)
	adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)

	// One image is below the minimum; nothing is uploaded or persisted.
	req := productRequest(t, http.MethodPost, "/products", lampFields(), 1)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "images")
	assert.Equal(t, 0, env.store.UploadCount())

	// Bad field values are rejected before any upload as well.
	fields := lampFields()
	fields["price"] = "-5"
	fields["category"] = "Groceries"
	req = productRequest(t, http.MethodPost, "/products", fields, 2)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	errs = decodeBody(t, resp)["errors"].(map[string]interface{})
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "category")
	assert.Equal(t, 0, env.store.UploadCount())
}

func TestCreateProductUploadFailure(t *testing.T) {
	env := setupApp(t)
	adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	env.store.FailUploads["img-1.png"] = fmt.Errorf("provider unavailable")

	req := productRequest(t, http.MethodPost, "/products", lampFields(), 2)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// Compensation ran: no assets remain and no product exists.
	assert.Equal(t, 0, env.store.Len())
	req = httptest.NewRequest(http.MethodGet, "/products", nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, float64(0), decodeBody(t, resp)["count"])
}
