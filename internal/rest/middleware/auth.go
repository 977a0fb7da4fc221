package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/tradeflowhq/tradeflow/internal/config"
	ierr "github.com/tradeflowhq/tradeflow/internal/errors"
	"github.com/tradeflowhq/tradeflow/internal/logger"
	"github.com/tradeflowhq/tradeflow/internal/types"
)

// SessionClaims are the claims the main application embeds in its session
// tokens. This service only resolves them; it never issues tokens.
type SessionClaims struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// AuthenticateMiddleware resolves the bearer session token to a company and
// user and attaches them to the request context.
func AuthenticateMiddleware(cfg *config.Configuration, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(types.HeaderAuthorization)
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" || tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ierr.NewErrorResponse(
				ierr.NewError("missing bearer token").
					WithHint("Authentication required").
					Mark(ierr.ErrPermissionDenied)))
			return
		}

		claims := &SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ierr.NewError("unexpected signing method").
					Mark(ierr.ErrPermissionDenied)
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !token.Valid || claims.CompanyID == "" {
			log.Debugw("session token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ierr.NewErrorResponse(
				ierr.NewError("invalid session token").
					WithHint("Authentication required").
					Mark(ierr.ErrPermissionDenied)))
			return
		}

		ctx := c.Request.Context()
		ctx = context.WithValue(ctx, types.CtxCompanyID, claims.CompanyID)
		ctx = context.WithValue(ctx, types.CtxUserID, claims.Subject)
		ctx = context.WithValue(ctx, types.CtxUserEmail, claims.Email)
		ctx = context.WithValue(ctx, types.CtxUserRole, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Set("company_id", claims.CompanyID)
		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// RequireBillingRoleMiddleware gates billing reads to admin/office roles.
// Runs after AuthenticateMiddleware.
func RequireBillingRoleMiddleware(c *gin.Context) {
	role := types.GetUserRole(c.Request.Context())
	if !role.CanViewBilling() {
		c.AbortWithStatusJSON(http.StatusForbidden, ierr.NewErrorResponse(
			ierr.NewError("role cannot access billing").
				WithHint("Billing is restricted to admin and office roles").
				Mark(ierr.ErrPermissionDenied)))
		return
	}
	c.Next()
}
