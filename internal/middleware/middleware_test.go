package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-onboarding-api/internal/models"
	appErrors "github.com/noah-isme/hr-onboarding-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
	tokens []string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.tokens = append(v.tokens, token)
	return v.claims, v.err
}

type observerStub struct {
	paths    []string
	statuses []int
}

func (o *observerStub) ObserveHTTPRequest(_ string, path string, status int, _ time.Duration) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/employees/:id/profile", handlers...)
	return r
}

func serve(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresBearer(t *testing.T) {
	validator := &validatorStub{claims: &models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee}}
	r := newRouter(JWT(validator))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/employees/emp-1/profile", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/employees/emp-1/profile", "Basic abc").Code)
	assert.Equal(t, http.StatusOK, serve(r, "/employees/emp-1/profile", "bearer tok-1").Code)
	require.Equal(t, []string{"tok-1"}, validator.tokens)
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	validator := &validatorStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	r := newRouter(JWT(validator))

	rec := serve(r, "/employees/emp-1/profile", "Bearer bad")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	validator := &validatorStub{err: errors.New("expired")}
	var seen bool
	r := gin.New()
	r.GET("/x", OptionalJWT(validator), func(c *gin.Context) {
		_, seen = c.Get(ContextUserKey)
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, "/x", "Bearer expired").Code)
	assert.False(t, seen)
}

func TestRBACAllowsRoleOrSelf(t *testing.T) {
	employee := &validatorStub{claims: &models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee}}
	r := newRouter(JWT(employee), RBAC(string(models.RoleHR), Self))

	assert.Equal(t, http.StatusOK, serve(r, "/employees/emp-1/profile", "Bearer t").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/employees/emp-2/profile", "Bearer t").Code)

	hr := &validatorStub{claims: &models.JWTClaims{UserID: "hr-1", Role: models.RoleHR}}
	r = newRouter(JWT(hr), RequireRoles(models.RoleHR))
	assert.Equal(t, http.StatusOK, serve(r, "/employees/emp-2/profile", "Bearer t").Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	r := newRouter(RequireRoles(models.RoleHR))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/employees/emp-1/profile", "").Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/employees/:id/profile", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	serve(r, "/employees/emp-9/profile", "")
	serve(r, "/nowhere", "")

	assert.Equal(t, []string{"/employees/:id/profile", "unmatched"}, observer.paths)
	assert.Equal(t, []int{http.StatusTeapot, http.StatusNotFound}, observer.statuses)
}
