package middleware

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/qrprint/kiosk/internal/db"
)

const (
	cookieName    = "kiosk_auth"
	tokenDuration = 24 * time.Hour

	// ContextUsername is set on the gin context by RequireAuth and
	// OptionalAuth when a valid session is present.
	ContextUsername = "username"
)

// dummyHash is compared against when the username does not exist, so a
// login attempt costs one bcrypt verification either way and the
// response cannot distinguish unknown-user from wrong-password.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var ErrInvalidCredentials = errors.New("invalid credentials")

type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// AuthMiddleware is the access gate: it authenticates credentials against
// the accounts table, issues cookie sessions and enforces role checks.
// The admin role is re-resolved from the store on every request rather
// than trusted from the token.
type AuthMiddleware struct {
	secret []byte
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func NewAuthMiddleware(sessionSecret string) (*AuthMiddleware, error) {
	secret := []byte(sessionSecret)
	if len(secret) == 0 {
		// No configured secret: sessions will not survive a restart.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn().Msg("no session secret configured, generated an ephemeral one")
	}
	return &AuthMiddleware{secret: secret}, nil
}

// Authenticate verifies a username/password pair against the stored
// bcrypt hash and returns the account on success.
func (a *AuthMiddleware) Authenticate(ctx context.Context, username, password string) (*db.Account, error) {
	account, err := db.Accounts.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (a *AuthMiddleware) generateToken(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			Issuer:    "kiosk",
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthMiddleware) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

func (a *AuthMiddleware) getTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

func (a *AuthMiddleware) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(cookieName, token, int(tokenDuration.Seconds()), "/", "", false, true)
}

func (a *AuthMiddleware) clearAuthCookie(c *gin.Context) {
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
}

func (a *AuthMiddleware) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	account, err := a.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	token, err := a.generateToken(account.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate session"})
		return
	}

	a.setAuthCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"username": account.Username})
}

func (a *AuthMiddleware) LogoutHandler(c *gin.Context) {
	a.clearAuthCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (a *AuthMiddleware) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and a password of at least 6 characters are required"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	account := &db.Account{
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	if err := db.Accounts.CreateAccount(c.Request.Context(), account); err != nil {
		if errors.Is(err, db.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"username": account.Username})
}

func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.getTokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := a.validateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			return
		}

		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth. The admin flag is fetched
// fresh from the accounts table so a stale session can never outrank
// the store.
func (a *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString(ContextUsername)
		if username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		account, err := db.Accounts.GetAccountByUsername(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown account"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server error"})
			return
		}

		if !account.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Next()
	}
}

// OptionalAuth records the username when a valid session is present and
// lets the request through either way. Uploads use it: anonymous uploads
// are allowed, authenticated ones get an owner.
func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.getTokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := a.validateToken(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}
