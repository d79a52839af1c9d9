package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/NextWave-98/installment-service/internal/models"
)

// StaffClaims is the JWT payload issued to staff members.
type StaffClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

// SignStaffToken issues an HS256 token for a staff member.
func SignStaffToken(secret []byte, user *models.User, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := StaffClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
		Role: string(user.Role),
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseStaffToken validates a token and returns the staff user id and role.
func ParseStaffToken(secret []byte, tokenStr string) (uint, string, error) {
	claims := &StaffClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return 0, "", errors.New("invalid or expired token")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, "", err
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("invalid subject: %w", err)
	}
	return uint(id), claims.Role, nil
}

// RequireAuth verifies the Bearer token and sets userID/userRole in the
// request context for downstream handlers.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenStr := strings.TrimPrefix(header, "Bearer ")
			if tokenStr == header {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			userID, role, err := ParseStaffToken(secret, tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set("userID", userID)
			c.Set("userRole", role)
			return next(c)
		}
	}
}
