package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/workspace-service/internal/credential"
	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/helper"
	"github.com/tazhibayda/workspace-service/internal/oauth"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/provision"
	"github.com/tazhibayda/workspace-service/internal/repo"
	"github.com/tazhibayda/workspace-service/internal/security"
)

// Store is the read side the handlers and middleware need.
type Store interface {
	Ping(ctx context.Context) error
	FindUserByID(ctx context.Context, tx repo.Tx, id primitive.ObjectID) (*domain.User, error)
	FindMember(ctx context.Context, tx repo.Tx, userID, workspaceID primitive.ObjectID) (*domain.Member, error)
	FindRoleByID(ctx context.Context, tx repo.Tx, id primitive.ObjectID) (*domain.Role, error)
}

type Provisioner interface {
	LoginOrCreate(ctx context.Context, in provision.LoginInput) (domain.ProvisionResult, error)
	Register(ctx context.Context, in provision.RegisterInput) (domain.ProvisionResult, error)
}

type Verifier interface {
	Verify(ctx context.Context, in credential.VerifyInput) (*domain.SanitizedUser, error)
}

type GoogleProvider interface {
	MakeState(raw string) string
	VerifyState(got string) bool
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.GoogleUser, error)
}

type Handler struct {
	Store     Store
	Engine    Provisioner
	Verifier  Verifier
	Catalog   permission.Catalog
	JWTSecret string
	AccessTTL time.Duration

	// Optional.
	Google  GoogleProvider
	Limiter Limiter
}

func NewHandler(store Store, engine Provisioner, verifier Verifier, catalog permission.Catalog, jwtSecret string, accessTTL time.Duration) *Handler {
	return &Handler{
		Store:     store,
		Engine:    engine,
		Verifier:  verifier,
		Catalog:   catalog,
		JWTSecret: jwtSecret,
		AccessTTL: accessTTL,
	}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type provisionResp struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// Register godoc
// @Summary Register user
// @Description Creates the user, its password account and a first workspace it owns.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerReq true "register"
// @Success 201 {object} provisionResp
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in registerReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !strings.Contains(in.Email, "@") || len(in.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email or weak password"})
		return
	}

	res, err := h.Engine.Register(c.Request.Context(), provision.RegisterInput{
		Email:     in.Email,
		Name:      in.Name,
		Password:  in.Password,
		RequestID: c.GetString(requestIDKey),
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, provisionResp{UserID: res.UserID.Hex(), WorkspaceID: res.WorkspaceID.Hex()})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Access string                `json:"access"`
	User   *domain.SanitizedUser `json:"user"`
}

// Login godoc
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} loginResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	u, err := h.Verifier.Verify(c.Request.Context(), credential.VerifyInput{Email: in.Email, Password: in.Password})
	if err != nil {
		writeErr(c, err)
		return
	}

	wid := ""
	if u.CurrentWorkspace != nil {
		wid = u.CurrentWorkspace.Hex()
	}
	tok, err := security.MakeAccess(h.JWTSecret, u.ID.Hex(), u.Email, wid, h.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	c.JSON(http.StatusOK, loginResp{Access: tok, User: u})
}

// GoogleStart godoc
// @Summary Start Google login
// @Tags auth
// @Success 302
// @Failure 404 {object} map[string]string
// @Router /api/auth/google [get]
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google login disabled"})
		return
	}
	c.Redirect(http.StatusFound, h.Google.AuthURL(h.Google.MakeState(uuid.NewString())))
}

type googleResp struct {
	Access      string `json:"access"`
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
}

// GoogleCallback godoc
// @Summary Google login callback
// @Tags auth
// @Produce json
// @Param state query string true "signed state"
// @Param code query string true "authorization code"
// @Success 200 {object} googleResp
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.Google == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "google login disabled"})
		return
	}
	if !h.Google.VerifyState(c.Query("state")) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	ctx := c.Request.Context()
	gu, err := h.Google.Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google exchange failed"})
		return
	}

	res, err := h.Engine.LoginOrCreate(ctx, provision.LoginInput{
		Provider:    domain.ProviderGoogle,
		ProviderID:  gu.Sub,
		DisplayName: gu.Name,
		Email:       gu.Email,
		Picture:     gu.Picture,
		RequestID:   c.GetString(requestIDKey),
	})
	if err != nil {
		writeErr(c, err)
		return
	}

	tok, err := security.MakeAccess(h.JWTSecret, res.UserID.Hex(), helper.NormalizeEmail(gu.Email), res.WorkspaceID.Hex(), h.AccessTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	c.JSON(http.StatusOK, googleResp{Access: tok, UserID: res.UserID.Hex(), WorkspaceID: res.WorkspaceID.Hex()})
}

// CurrentUser godoc
// @Summary Current user
// @Tags user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.SanitizedUser
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/user/current [get]
func (h *Handler) CurrentUser(c *gin.Context) {
	au, _ := authUser(c)
	u, err := h.Store.FindUserByID(c.Request.Context(), nil, au.UserID)
	if err != nil {
		writeErr(c, err)
		return
	}
	if u == nil {
		writeErr(c, domain.ErrUserNotFound)
		return
	}
	c.JSON(http.StatusOK, u.Sanitized())
}

type permissionsResp struct {
	WorkspaceID string   `json:"workspace_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// WorkspacePermissions godoc
// @Summary Caller's role in a workspace
// @Tags workspace
// @Security BearerAuth
// @Produce json
// @Param id path string true "workspace id"
// @Success 200 {object} permissionsResp
// @Failure 403 {object} map[string]string
// @Router /api/workspace/{id}/permissions [get]
func (h *Handler) WorkspacePermissions(c *gin.Context) {
	role := memberRole(c)
	if role == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no role"})
		return
	}
	c.JSON(http.StatusOK, permissionsResp{
		WorkspaceID: c.Param("id"),
		Role:        role.Name,
		Permissions: role.Permissions,
	})
}

type roleResp struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Roles godoc
// @Summary Role catalog
// @Tags workspace
// @Produce json
// @Success 200 {array} roleResp
// @Router /api/roles [get]
func (h *Handler) Roles(c *gin.Context) {
	out := make([]roleResp, 0, h.Catalog.Len())
	for _, e := range h.Catalog.Entries() {
		out = append(out, roleResp{Name: e.Role, Permissions: e.Permissions})
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
