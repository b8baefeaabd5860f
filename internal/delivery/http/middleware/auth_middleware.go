package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"zaanjob-backend/config"
	"zaanjob-backend/internal/delivery/http/response"
	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/auth"
	"zaanjob-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errNoToken = errors.New("no session token")

// Authenticator verifies Supabase session tokens and mirrors the caller into
// the accounts table.
type Authenticator struct {
	jwks     *auth.Provider
	secret   string
	accounts domain.AccountUsecase
	secLog   *security.SecurityLogger
	log      *slog.Logger
}

func NewAuthenticator(jwksProvider *auth.Provider, cfg *config.Config, accounts domain.AccountUsecase, secLog *security.SecurityLogger, log *slog.Logger) *Authenticator {
	return &Authenticator{
		jwks:     jwksProvider,
		secret:   cfg.SupabaseJWTSecret,
		accounts: accounts,
		secLog:   secLog,
		log:      log,
	}
}

// AuthMiddleware rejects requests without a valid session.
func (a *Authenticator) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.authenticate(c); err != nil {
			reason := "invalid_token"
			message := "Invalid token"
			if errors.Is(err, errNoToken) {
				reason = "missing_token"
				message = "Authorization header or auth_token cookie required"
			}
			a.secLog.LogUnauthorized(c.Request.Context(), c.ClientIP(), c.GetHeader("User-Agent"),
				domain.RequestIDFrom(c.Request.Context()), c.FullPath(), reason)
			response.Error(c, http.StatusUnauthorized, apperror.KindUnauthorized, message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present
// and lets anonymous requests through.
func (a *Authenticator) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.authenticate(c); err != nil && !errors.Is(err, errNoToken) {
			a.log.Debug("ignoring invalid optional token", "error", err)
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) error {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return errNoToken
	}

	token, err := jwt.Parse(tokenString, a.keyFunc, jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}))
	if err != nil || !token.Valid {
		return fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return errors.New("invalid claims")
	}
	identity := identityFromClaims(claims)
	if identity.UserID == "" {
		return errors.New("token has no subject")
	}

	// Role comes from the mirrored account, not the token. A failing
	// mirror must not lock the caller out.
	role := identity.UserType
	account, err := a.accounts.EnsureAccount(c.Request.Context(), identity)
	if err != nil {
		a.log.Warn("account mirror failed", "user_id", identity.UserID, "error", err)
	} else if account != nil && account.UserType != "" {
		role = account.UserType
	}
	if !domain.ValidRole(role) {
		role = domain.RoleProfessional
	}

	c.Set(string(domain.KeyUserID), identity.UserID)
	c.Set(string(domain.KeyUserEmail), identity.Email)
	c.Set(string(domain.KeyUserRole), role)
	c.Request = c.Request.WithContext(domain.WithIdentity(c.Request.Context(), identity.UserID, identity.Email, role))
	return nil
}

func (a *Authenticator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		// HS256 - Use Secret
		if a.secret == "" {
			return nil, fmt.Errorf("HS256 token received but SUPABASE_JWT_SECRET is not configured")
		}
		return []byte(a.secret), nil
	}
	if a.jwks == nil {
		return nil, fmt.Errorf("asymmetric token received but no JWKS provider is configured")
	}
	return a.jwks.KeyFunc(token)
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}

func identityFromClaims(claims jwt.MapClaims) domain.Identity {
	id := domain.Identity{}
	id.UserID, _ = claims["sub"].(string)
	id.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		id.UserType, _ = meta["user_type"].(string)
		id.FullName, _ = meta["full_name"].(string)
	}
	return id
}

// RequireRole must run after AuthMiddleware.
func RequireRole(secLog *security.SecurityLogger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := domain.RoleFrom(c.Request.Context())
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		secLog.LogForbidden(c.Request.Context(), domain.UserIDFrom(c.Request.Context()), c.FullPath(), c.Request.Method)
		response.Error(c, http.StatusForbidden, apperror.KindForbidden, "You do not have permission to access this resource", nil)
		c.Abort()
	}
}
