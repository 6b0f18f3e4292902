package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"planboard/internal/handler"
	"planboard/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func setupUserTest() (*gin.Engine, *MockUserStore) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mockStore := new(MockUserStore)
	userHandler := handler.NewUserHandler(mockStore, "test-secret")

	r.POST("/register", userHandler.Register)
	r.POST("/login", userHandler.Login)

	return r, mockStore
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	jsonBody, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	router, mockStore := setupUserTest()

	mockStore.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, nil)
	mockStore.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Name:     "Test User",
		Email:    "Test@Example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.AuthResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, "test@example.com", response.Email)
	assert.Equal(t, "Test User", response.Name)
	mockStore.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	// Arrange
	router, mockStore := setupUserTest()

	existing := &model.User{ID: uuid.New(), Email: "test@example.com"}
	mockStore.On("FindByEmail", mock.Anything, "test@example.com").Return(existing, nil)

	// Act
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusConflict, resp.Code)
	mockStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_InvalidInput(t *testing.T) {
	// Arrange
	router, _ := setupUserTest()

	// Act: password shorter than the minimum
	resp := postJSON(router, "/register", handler.RegisterRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "123",
	})

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	router, mockStore := setupUserTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		Name:           "Test User",
		HashedPassword: string(hash),
	}
	mockStore.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.AuthResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, user.ID.String(), response.ID)
	mockStore.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	// Arrange
	router, mockStore := setupUserTest()

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &model.User{
		ID:             uuid.New(),
		Email:          "test@example.com",
		HashedPassword: string(hash),
	}
	mockStore.On("FindByEmail", mock.Anything, "test@example.com").Return(user, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "test@example.com",
		Password: "wrong-password",
	})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	// Arrange
	router, mockStore := setupUserTest()

	mockStore.On("FindByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)

	// Act
	resp := postJSON(router, "/login", handler.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
