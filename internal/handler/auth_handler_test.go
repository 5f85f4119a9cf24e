package handler

import (
	"fmt"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"erp-service/internal/model"
	"erp-service/pkg/database"
)

func seedUser(t *testing.T, email, password string, active bool) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &model.User{
		Name:     "Seed User",
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleManager,
		IsActive: active,
	}
	if err := database.GetDB().Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestRegister(t *testing.T) {
	setupHandlerTest(t)

	body := `{"name": "New User", "email": "new@example.com", "password": "secret123"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/register", body)

	if err := Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	user := resp["user"].(map[string]interface{})
	if user["email"] != "new@example.com" {
		t.Fatalf("unexpected email: %v", user["email"])
	}
	// Unspecified role defaults to the least privileged one
	if user["role"] != model.RoleOperator {
		t.Fatalf("default role = %v, want %s", user["role"], model.RoleOperator)
	}
	if resp["verification_token"] == "" {
		t.Fatal("expected a verification token in the response")
	}

	// Password must never be stored in the clear
	var stored model.User
	database.GetDB().Where("email = ?", "new@example.com").First(&stored)
	if stored.Password == "secret123" {
		t.Fatal("password stored in plaintext")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	setupHandlerTest(t)
	seedUser(t, "taken@example.com", "secret123", true)

	body := `{"name": "Other", "email": "taken@example.com", "password": "secret123"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/register", body)

	if err := Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegister_UnknownRole(t *testing.T) {
	setupHandlerTest(t)

	body := `{"name": "New User", "email": "roleless@example.com", "password": "secret123", "role": "superuser"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/register", body)

	if err := Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	setupHandlerTest(t)
	user := seedUser(t, "login@example.com", "secret123", true)

	body := `{"email": "login@example.com", "password": "secret123"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", body)

	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decodeBody(t, rec)
	if resp["token"] == "" {
		t.Fatal("expected a session token in the response")
	}
	got := resp["user"].(map[string]interface{})
	if uint(got["id"].(float64)) != user.ID {
		t.Fatalf("user id = %v, want %d", got["id"], user.ID)
	}
	if _, ok := got["password"]; ok {
		t.Fatal("login response leaked the password field")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	setupHandlerTest(t)
	seedUser(t, "login@example.com", "secret123", true)

	body := `{"email": "login@example.com", "password": "wrong"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", body)

	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "invalid credentials" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	setupHandlerTest(t)

	body := `{"email": "nobody@example.com", "password": "secret123"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", body)

	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	// Unknown email and wrong password are indistinguishable to the caller
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "invalid credentials" {
		t.Fatalf("unexpected error message: %v", resp["error"])
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	setupHandlerTest(t)
	seedUser(t, "inactive@example.com", "secret123", false)

	body := `{"email": "inactive@example.com", "password": "secret123"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", body)

	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPasswordResetFlow(t *testing.T) {
	setupHandlerTest(t)
	seedUser(t, "reset@example.com", "oldpassword", true)

	// Request a reset token
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/forgot-password", `{"email": "reset@example.com"}`)
	if err := ForgotPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resetToken := decodeBody(t, rec)["reset_token"].(string)

	// Consume it
	body := fmt.Sprintf(`{"token": %q, "new_password": "newpassword"}`, resetToken)
	c, rec = jsonRequest(t, http.MethodPost, "/api/auth/reset-password", body)
	if err := ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Old password no longer works, new one does
	c, rec = jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email": "reset@example.com", "password": "oldpassword"}`)
	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password still accepted, got %d", rec.Code)
	}

	c, rec = jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email": "reset@example.com", "password": "newpassword"}`)
	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("new password rejected, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestResetPassword_SessionTokenRejected(t *testing.T) {
	setupHandlerTest(t)
	user := seedUser(t, "reset2@example.com", "oldpassword", true)

	// A session token must not work as a reset token
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", `{"email": "reset2@example.com", "password": "oldpassword"}`)
	if err := Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	sessionToken := decodeBody(t, rec)["token"].(string)

	body := fmt.Sprintf(`{"token": %q, "new_password": "newpassword"}`, sessionToken)
	c, rec = jsonRequest(t, http.MethodPost, "/api/auth/reset-password", body)
	if err := ResetPassword(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}

	var fresh model.User
	database.GetDB().First(&fresh, user.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(fresh.Password), []byte("oldpassword")); err != nil {
		t.Fatal("password changed despite rejected token")
	}
}

func TestVerifyEmail(t *testing.T) {
	setupHandlerTest(t)

	body := `{"name": "Verify Me", "email": "verify@example.com", "password": "secret123"}`
	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/register", body)
	if err := Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	token := decodeBody(t, rec)["verification_token"].(string)

	c, rec = jsonRequest(t, http.MethodPost, "/api/auth/verify-email", fmt.Sprintf(`{"token": %q}`, token))
	if err := VerifyEmail(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var user model.User
	database.GetDB().Where("email = ?", "verify@example.com").First(&user)
	if !user.EmailVerified {
		t.Fatal("email_verified not set after verification")
	}
}
