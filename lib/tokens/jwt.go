package tokens

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stackpay/stackpay.go/db/models"
)

type jwtCustomClaims struct {
	MerchantID string `json:"merchant_id"`

	jwt.StandardClaims
}

// GenerateAccessToken issues a dashboard token bound to the merchant's
// on-chain principal.
func GenerateAccessToken(secret []byte, expiryInSeconds int, m *models.Merchant) (string, error) {
	claims := &jwtCustomClaims{
		MerchantID: m.Principal,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Duration(expiryInSeconds) * time.Second).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Middleware validates the bearer token and stores the merchant principal on
// the request context as MerchantID.
func Middleware(secret []byte) echo.MiddlewareFunc {
	config := middleware.JWTConfig{
		Claims:     &jwtCustomClaims{},
		SigningKey: secret,
		SuccessHandler: func(c echo.Context) {
			token := c.Get("user").(*jwt.Token)
			claims := token.Claims.(*jwtCustomClaims)
			c.Set("MerchantID", claims.MerchantID)
		},
	}
	return middleware.JWTWithConfig(config)
}
