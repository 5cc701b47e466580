package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_ordering/internal/hash"
	"github.com/Skotchmaster/food_ordering/internal/logging"
	"github.com/Skotchmaster/food_ordering/internal/models"
	"github.com/Skotchmaster/food_ordering/internal/mykafka"
	"github.com/Skotchmaster/food_ordering/internal/service/token"
)

type AuthHandler struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	Producer      *mykafka.Producer
}

type signUpRequest struct {
	Username        string `json:"username"         form:"username"`
	Email           string `json:"email"            form:"email"`
	Password        string `json:"password"         form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	Phone           string `json:"phone"            form:"phone"`
	Role            string `json:"role"             form:"role"`
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		l.Warn("signup_error", "status", 400, "reason", "missing fields")
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password required")
	}
	if req.Password != req.ConfirmPassword {
		l.Warn("signup_error", "status", 400, "reason", "password_mismatch")
		return echo.NewHTTPError(http.StatusBadRequest, "passwords do not match")
	}

	role := models.RoleCustomer
	if req.Role == models.RoleOwner {
		role = models.RoleOwner
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("signup_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash the password")
	}

	var existing models.Customer
	err = h.DB.Where("username = ? OR email = ?", req.Username, req.Email).First(&existing).Error
	if err == nil {
		l.Warn("signup_failed", "status", 409, "reason", "customer_exists")
		return echo.NewHTTPError(http.StatusConflict, "customer already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("signup_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	customer := models.Customer{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Phone:        req.Phone,
		Role:         role,
	}
	if err := h.DB.Create(&customer).Error; err != nil {
		l.Error("signup_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, map[string]any{
		"type":       "customer_registered",
		"customerID": customer.ID,
		"username":   customer.Username,
	}, customer.ID)

	l.Info("signup_success", "status", 200)
	return c.JSON(http.StatusOK, echo.Map{
		"id": customer.ID, "username": customer.Username, "role": customer.Role,
	})
}

type signInRequest struct {
	UsernameOrEmail string `json:"username_or_email" form:"username_or_email"`
	Password        string `json:"password"          form:"password"`
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req signInRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signin_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var customer models.Customer
	if err := h.DB.Where("username = ? OR email = ?", req.UsernameOrEmail, req.UsernameOrEmail).
		First(&customer).Error; err != nil {
		l.Warn("signin_failed", "status", 401, "reason", "invalid username/email or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username/email or password")
	}

	if !hash.CheckPassword(customer.PasswordHash, req.Password) {
		l.Warn("signin_failed", "status", 401, "reason", "invalid username/email or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username/email or password")
	}

	accessToken, err := token.SignAccessToken(customer.ID, customer.Role, h.JWTSecret)
	if err != nil {
		l.Error("signin_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	refreshToken, jti, err := token.SignRefreshToken(customer.ID, customer.Role, h.RefreshSecret)
	if err != nil {
		l.Error("signin_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	if err := token.SaveRefreshToken(h.DB, refreshToken, jti, customer.Role, customer.ID); err != nil {
		l.Error("signin_failed", "status", 500, "reason", "cannot store refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(token.CreateCookie("accessToken", accessToken, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refreshToken, "/", time.Now().Add(token.RefreshTTL)))

	h.publish(c, map[string]any{
		"type":       "customer_signed_in",
		"customerID": customer.ID,
		"username":   customer.Username,
	}, customer.ID)

	l.Info("signin_success")
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"role":          customer.Role,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	if refreshCookie, err := c.Cookie("refreshToken"); err == nil {
		result := h.DB.Model(&models.RefreshToken{}).
			Where("token = ?", token.Sha256Hex(refreshCookie.Value)).
			Update("revoked", true)
		if result.Error != nil {
			l.Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", result.Error)
		}
	} else {
		l.Warn("logout_without_refresh_cookie", "error", err)
	}

	c.SetCookie(token.DeleteCookie("refreshToken", "/"))
	c.SetCookie(token.DeleteCookie("accessToken", "/"))
	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}
