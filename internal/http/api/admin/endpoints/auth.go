package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/maxedmini/pi-kiosk/internal/http/api"
	"github.com/maxedmini/pi-kiosk/internal/http/api/admin/packets"
)

const tokenTTL = 24 * time.Hour

type AuthController struct {
	secret       string
	passwordHash string
}

// AuthModule mounts the login endpoint. It is only registered when both a
// JWT secret and an admin password hash are configured.
func AuthModule(secret, passwordHash string) api.Module {
	ctl := &AuthController{secret: secret, passwordHash: passwordHash}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/auth/login", ctl.login)
	})
}

func (a *AuthController) login(ctx *gin.Context) (any, *api.APIError) {
	var req packets.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "password is required"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(req.Password)); err != nil {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "invalid credentials"}
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(a.secret))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to sign token"}
	}
	return packets.TokenResponse{Token: signed}, nil
}
