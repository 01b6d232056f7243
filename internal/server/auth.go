package server

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mi4u/lembrete-api/internal/common"
)

// Claims is the mi4u access-token payload the handlers care about. The token
// is issued and signed upstream; this service only reads the subject fields,
// so the signature is not verified here.
type Claims struct {
	CompanyID int
	UserID    int
}

// parseAccessToken extracts company and user ids from the token's nested
// "sub" object without verifying the signature.
func parseAccessToken(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: missing mi4u_access_token", common.ErrInvalidInput)
	}

	var mc jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &mc); err != nil {
		return Claims{}, fmt.Errorf("%w: invalid mi4u_access_token: %v", common.ErrInvalidInput, err)
	}

	sub, ok := mc["sub"].(map[string]any)
	if !ok {
		return Claims{}, fmt.Errorf("%w: invalid mi4u_access_token: sub is not an object", common.ErrInvalidInput)
	}

	companyID, ok := claimInt(sub["company_id"])
	if !ok {
		return Claims{}, fmt.Errorf("%w: invalid mi4u_access_token: missing company_id", common.ErrInvalidInput)
	}
	userID, _ := claimInt(sub["user_id"])

	return Claims{CompanyID: companyID, UserID: userID}, nil
}

func claimInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// requirePermissionToken gates every route on the shared service token,
// accepted as a query parameter or the X-Permission-Token header.
func requirePermissionToken(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.QueryParam("permission_token")
			if token == "" {
				token = c.Request().Header.Get("X-Permission-Token")
			}
			if token == "" || token != expected {
				return common.HTTPError(fmt.Errorf("%w: invalid permission_token", common.ErrUnauthorized))
			}
			return next(c)
		}
	}
}
