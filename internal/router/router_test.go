package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"quill/internal/acl"
	"quill/internal/handlers"
	"quill/internal/models"
	"quill/internal/services"
	"quill/internal/services/mocks"
	"quill/pkg/config"
	"quill/pkg/jwt"
	"quill/pkg/logger"
	"quill/pkg/pagination"
	"quill/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = ttl
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[jti]
	return ok, nil
}

type stubScheduler struct{}

func (stubScheduler) Status() services.SchedulerStatus {
	return services.SchedulerStatus{Running: true, Jobs: []services.JobStatus{}}
}

type testEnv struct {
	engine        *gin.Engine
	tokens        *jwt.JWTManager
	denylist      *memoryDenylist
	users         *mocks.MockUserStore
	content       *mocks.MockContentStore
	taxonomies    *mocks.MockTaxonomyStore
	media         *mocks.MockMediaStore
	menus         *mocks.MockMenuStore
	organizations *mocks.MockOrganizationStore
	options       *mocks.MockOptionStore
	health        map[string]handlers.Pinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	env := &testEnv{
		tokens:        jwt.NewJWTManager("router-test-secret", time.Hour, "quill"),
		denylist:      &memoryDenylist{revoked: map[string]time.Duration{}},
		users:         mocks.NewMockUserStore(ctrl),
		content:       mocks.NewMockContentStore(ctrl),
		taxonomies:    mocks.NewMockTaxonomyStore(ctrl),
		media:         mocks.NewMockMediaStore(ctrl),
		menus:         mocks.NewMockMenuStore(ctrl),
		organizations: mocks.NewMockOrganizationStore(ctrl),
		options:       mocks.NewMockOptionStore(ctrl),
		health:        map[string]handlers.Pinger{},
	}

	cfg := &config.Config{
		CORS:    config.CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{"GET", "POST", "PUT", "DELETE"}},
		Storage: config.StorageConfig{MaxUploadSize: 2 * 1024 * 1024},
	}
	env.engine = SetupRouter(cfg, Dependencies{
		Users:         env.users,
		Content:       env.content,
		Taxonomies:    env.taxonomies,
		Media:         env.media,
		Menus:         env.menus,
		Organizations: env.organizations,
		Options:       env.options,
		Tokens:        env.tokens,
		Denylist:      env.denylist,
		Events:        services.NewEventHub(),
		Scheduler:     stubScheduler{},
		Health:        env.health,
	})
	return env
}

func (e *testEnv) token(t *testing.T, userID string, role acl.Role) string {
	t.Helper()
	token, _, err := e.tokens.GenerateToken(jwt.Subject{ID: userID, Role: string(role), FirstName: "Test"})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorsNotFound() error {
	return gorm.ErrRecordNotFound
}

func contentOwnedBy(id, authorID string) *models.Content {
	return &models.Content{
		BaseModel: models.BaseModel{ID: id},
		Title:     "Hello",
		Status:    models.ContentStatusDraft,
		AuthorID:  authorID,
	}
}

func TestAuthorDeletesOwnContentOnly(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)

	env.content.EXPECT().Get(gomock.Any(), "c-own").Return(contentOwnedBy("c-own", "author-1"), nil)
	env.content.EXPECT().Delete(gomock.Any(), "c-own").Return(nil)
	w := env.do(http.MethodDelete, "/api/v1/content/c-own", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	env.content.EXPECT().Get(gomock.Any(), "c-other").Return(contentOwnedBy("c-other", "author-2"), nil)
	w = env.do(http.MethodDelete, "/api/v1/content/c-other", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusForbidden, decodeError(t, w).Status)
}

func TestEditorDeletesAnyContent(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "editor-1", acl.RoleEditor)

	env.content.EXPECT().Get(gomock.Any(), "c-other").Return(contentOwnedBy("c-other", "author-2"), nil)
	env.content.EXPECT().Delete(gomock.Any(), "c-other").Return(nil)
	w := env.do(http.MethodDelete, "/api/v1/content/c-other", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestMissingContentIs404BeforeOwnership(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)

	env.content.EXPECT().Get(gomock.Any(), "missing").Return(nil, errorsNotFound())
	w := env.do(http.MethodGet, "/api/v1/content/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordExistenceHiddenWithoutPermission(t *testing.T) {
	env := newTestEnv(t)
	subscriber := env.token(t, "sub-1", acl.RoleSubscriber)

	// 无任何 Get 预期：粗粒度检查失败时不得读取记录
	tests := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"guest deletes content", http.MethodDelete, "/api/v1/content/missing", ""},
		{"guest shows content", http.MethodGet, "/api/v1/content/missing", ""},
		{"subscriber edits content", http.MethodPut, "/api/v1/content/missing", subscriber},
		{"subscriber reads revisions", http.MethodGet, "/api/v1/content/missing/revisions", subscriber},
		{"guest reads seo", http.MethodGet, "/api/v1/content/missing/seo", ""},
		{"subscriber deletes media", http.MethodDelete, "/api/v1/media/missing", subscriber},
		{"guest shows media", http.MethodGet, "/api/v1/media/missing", ""},
		{"subscriber shows taxonomy", http.MethodGet, "/api/v1/taxonomies/missing", subscriber},
		{"guest updates taxonomy", http.MethodPut, "/api/v1/taxonomies/missing", ""},
		{"subscriber deletes taxonomy", http.MethodDelete, "/api/v1/taxonomies/missing", subscriber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(tt.method, tt.path, tt.token, map[string]string{"title": "x"})
			assert.Equal(t, http.StatusForbidden, w.Code)
		})
	}
}

func TestMissingRecordsAre404WithPermission(t *testing.T) {
	env := newTestEnv(t)

	env.media.EXPECT().Get(gomock.Any(), "missing").Return(nil, errorsNotFound())
	w := env.do(http.MethodDelete, "/api/v1/media/missing", env.token(t, "author-1", acl.RoleAuthor), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.taxonomies.EXPECT().Get(gomock.Any(), "missing").Return(nil, errorsNotFound())
	w = env.do(http.MethodGet, "/api/v1/taxonomies/missing", env.token(t, "author-1", acl.RoleAuthor), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGuestAndSubscriberCannotCreateContent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/content", "", map[string]string{"title": "x", "status": "published"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/content", env.token(t, "sub-1", acl.RoleSubscriber), map[string]string{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExpiredTokenRejectedBeforeRoute(t *testing.T) {
	env := newTestEnv(t)
	expired := jwt.NewJWTManager("router-test-secret", -time.Minute, "quill")
	token, _, err := expired.GenerateToken(jwt.Subject{ID: "admin-1", Role: string(acl.RoleAdmin)})
	require.NoError(t, err)

	// 没有任何存储调用的预期，路由逻辑若执行会导致 mock 失败
	w := env.do(http.MethodGet, "/api/v1/content", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, http.StatusUnauthorized, decodeError(t, w).Status)
}

func TestACLEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/acl", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tampered, _, err := env.tokens.GenerateToken(jwt.Subject{ID: "u1", Role: "superuser"})
	require.NoError(t, err)
	w = env.do(http.MethodGet, "/api/v1/acl", tampered, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/v1/acl", env.token(t, "admin-1", acl.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var table map[acl.Role][]acl.Permission
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &table))
	assert.Equal(t, acl.Default.Table(), table)
}

func TestAuthorListIsScopedToOwnContent(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)

	env.content.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q pagination.ListQuery) ([]models.Content, int64, error) {
			assert.Equal(t, "author-1", q.Filter["authorId"])
			assert.Equal(t, models.ContentStatusDraft, q.Filter["status"])
			return []models.Content{*contentOwnedBy("c1", "author-1"), *contentOwnedBy("c2", "author-1")}, 2, nil
		})

	// 作者尝试通过过滤条件查看他人内容，所有者条件会被覆盖
	w := env.do(http.MethodGet, `/api/v1/content?filter={"authorId":"author-2","status":"draft"}&range=[0,9]`, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "content 0-9/2", w.Header().Get("Content-Range"))

	var items []models.Content
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "author-1", item.AuthorID)
	}
}

func TestEditorListIsUnscoped(t *testing.T) {
	env := newTestEnv(t)

	env.content.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q pagination.ListQuery) ([]models.Content, int64, error) {
			_, scoped := q.Filter["authorId"]
			assert.False(t, scoped)
			return []models.Content{}, 57, nil
		})

	w := env.do(http.MethodGet, "/api/v1/content", env.token(t, "editor-1", acl.RoleEditor), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "content 0-9/57", w.Header().Get("Content-Range"))
}

func TestRegisterAlwaysStoresSubscriber(t *testing.T) {
	env := newTestEnv(t)

	env.users.EXPECT().Create(gomock.Any(), gomock.Any(), "s3cret-pass").
		DoAndReturn(func(_ context.Context, user *models.User, _ string) error {
			assert.Equal(t, string(acl.RoleSubscriber), user.Role)
			user.ID = "new-user"
			return nil
		})

	w := env.do(http.MethodPost, "/api/v1/register", "", map[string]string{
		"username":      "mallory",
		"email":         "mallory@example.com",
		"plainPassword": "s3cret-pass",
		"role":          "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(acl.RoleSubscriber), resp.User.Role)
	assert.NotEmpty(t, resp.Token)

	claims, err := env.tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, string(acl.RoleSubscriber), claims.Role)
	assert.Equal(t, "new-user", claims.Subject)
}

func TestRegisterWhileLoggedInIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/api/v1/register", env.token(t, "sub-1", acl.RoleSubscriber), map[string]string{
		"username":      "again",
		"email":         "again@example.com",
		"plainPassword": "s3cret-pass",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/api/v1/register", "", map[string]string{"username": "ab", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeError(t, w)
	params := map[string]bool{}
	for _, d := range body.Details {
		params[d.Parameter] = true
	}
	assert.True(t, params["username"])
	assert.True(t, params["email"])
	assert.True(t, params["plainPassword"])
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := &models.User{BaseModel: models.BaseModel{ID: "u1"}, Username: "ada", Role: string(acl.RoleEditor)}
	require.NoError(t, user.SetPassword("correct-horse"))

	env.users.EXPECT().GetByLogin(gomock.Any(), "ada").Return(user, nil).Times(2)
	env.users.EXPECT().GetByLogin(gomock.Any(), "nobody").Return(nil, errorsNotFound())

	w := env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"usernameOrEmail": "ada", "plainPassword": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := env.tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, string(acl.RoleEditor), claims.Role)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = env.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"usernameOrEmail": "ada", "plainPassword": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/login", "", map[string]string{"usernameOrEmail": "nobody", "plainPassword": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginIgnoresCallerRole(t *testing.T) {
	env := newTestEnv(t)
	user := &models.User{BaseModel: models.BaseModel{ID: "u2"}, Username: "grace", Role: string(acl.RoleAuthor)}
	require.NoError(t, user.SetPassword("correct-horse"))
	env.users.EXPECT().GetByLogin(gomock.Any(), "grace@example.com").Return(user, nil)

	w := env.do(http.MethodPost, "/api/v1/login", env.token(t, "admin-1", acl.RoleAdmin),
		map[string]string{"usernameOrEmail": "grace@example.com", "plainPassword": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u2", resp.User.ID)
	assert.Equal(t, string(acl.RoleAuthor), resp.User.Role)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "sub-1", acl.RoleSubscriber)

	w := env.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, env.denylist.revoked, 1)
	for _, ttl := range env.denylist.revoked {
		assert.True(t, ttl > 0 && ttl <= time.Hour)
	}

	w = env.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshUsesStoredRole(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "u1", acl.RoleAuthor)
	env.users.EXPECT().Get(gomock.Any(), "u1").
		Return(&models.User{BaseModel: models.BaseModel{ID: "u1"}, Role: string(acl.RoleEditor)}, nil)

	w := env.do(http.MethodPost, "/api/v1/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := env.tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, string(acl.RoleEditor), claims.Role)

	w = env.do(http.MethodPost, "/api/v1/auth/refresh", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContentCreateOwnership(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)

	env.content.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, content *models.Content) error {
			assert.Equal(t, "author-1", content.AuthorID)
			assert.Equal(t, "My post", content.Title)
			content.ID = "c-new"
			return nil
		})
	w := env.do(http.MethodPost, "/api/v1/content", token, map[string]string{"title": "My post", "content": "body"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/v1/content", token, map[string]string{"title": "Ghost", "authorId": "author-2"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/v1/content", token, map[string]string{"content": "no title"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decodeError(t, w).Details[0].Parameter)

	w = env.do(http.MethodPost, "/api/v1/content", token, map[string]string{"title": "Bad", "status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorCannotReassignContent(t *testing.T) {
	env := newTestEnv(t)

	env.content.EXPECT().Get(gomock.Any(), "c1").Return(contentOwnedBy("c1", "author-1"), nil)
	w := env.do(http.MethodPut, "/api/v1/content/c1", env.token(t, "author-1", acl.RoleAuthor), map[string]string{"authorId": "author-2"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.content.EXPECT().Get(gomock.Any(), "c1").Return(contentOwnedBy("c1", "author-1"), nil)
	env.content.EXPECT().Update(gomock.Any(), gomock.Any(), "editor-1").
		DoAndReturn(func(_ context.Context, content *models.Content, _ string) error {
			assert.Equal(t, "author-2", content.AuthorID)
			return nil
		})
	w = env.do(http.MethodPut, "/api/v1/content/c1", env.token(t, "editor-1", acl.RoleEditor), map[string]string{"authorId": "author-2"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRevisionRestoreRequiresRevisionsEdit(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/v1/content/c1/revisions/r1/restore", env.token(t, "author-1", acl.RoleAuthor), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	content := contentOwnedBy("c1", "author-1")
	revision := &models.Revision{BaseModel: models.BaseModel{ID: "r1"}, ContentID: "c1"}
	env.content.EXPECT().Get(gomock.Any(), "c1").Return(content, nil)
	env.content.EXPECT().GetRevision(gomock.Any(), "r1").Return(revision, nil)
	env.content.EXPECT().RestoreRevision(gomock.Any(), content, revision, "editor-1").Return(content, nil)
	w = env.do(http.MethodPost, "/api/v1/content/c1/revisions/r1/restore", env.token(t, "editor-1", acl.RoleEditor), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSetTaxonomies(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)

	env.content.EXPECT().Get(gomock.Any(), "c1").Return(contentOwnedBy("c1", "author-1"), nil)
	env.content.EXPECT().SetTaxonomies(gomock.Any(), "c1", []string{"t1", "t2"}).
		Return([]models.Taxonomy{{Name: "Go"}, {Name: "News"}}, nil)
	w := env.do(http.MethodPut, "/api/v1/content/c1/taxonomies", token, map[string][]string{"taxonomyIds": {"t1", "t2"}})
	assert.Equal(t, http.StatusOK, w.Code)

	env.content.EXPECT().Get(gomock.Any(), "c2").Return(contentOwnedBy("c2", "author-2"), nil)
	w = env.do(http.MethodPut, "/api/v1/content/c2/taxonomies", token, map[string][]string{"taxonomyIds": {"t1"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSEORequiresSEOEdit(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/api/v1/content/c1/seo", env.token(t, "author-1", acl.RoleAuthor), map[string]string{"metaTitle": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.content.EXPECT().Get(gomock.Any(), "c1").Return(contentOwnedBy("c1", "author-1"), nil)
	env.content.EXPECT().SaveSEO(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, seo *models.SEO) error {
			assert.Equal(t, "c1", seo.ContentID)
			require.NotNil(t, seo.MetaTitle)
			assert.Equal(t, "Better title", *seo.MetaTitle)
			return nil
		})
	w = env.do(http.MethodPut, "/api/v1/content/c1/seo", env.token(t, "editor-1", acl.RoleEditor), map[string]string{"metaTitle": "Better title"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRoleChangeRequiresPromote(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPut, "/api/v1/users/u2", env.token(t, "editor-1", acl.RoleEditor), map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.users.EXPECT().Get(gomock.Any(), "u2").
		Return(&models.User{BaseModel: models.BaseModel{ID: "u2"}, Role: string(acl.RoleSubscriber)}, nil)
	env.users.EXPECT().Update(gomock.Any(), gomock.Any(), "").
		DoAndReturn(func(_ context.Context, user *models.User, _ string) error {
			assert.Equal(t, string(acl.RoleAuthor), user.Role)
			return nil
		})
	w = env.do(http.MethodPut, "/api/v1/users/u2", env.token(t, "admin-1", acl.RoleAdmin), map[string]string{"role": "author"})
	assert.Equal(t, http.StatusOK, w.Code)

	env.users.EXPECT().Get(gomock.Any(), "u2").
		Return(&models.User{BaseModel: models.BaseModel{ID: "u2"}, Role: string(acl.RoleSubscriber)}, nil)
	w = env.do(http.MethodPut, "/api/v1/users/u2", env.token(t, "admin-1", acl.RoleAdmin), map[string]string{"role": "guest"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorsArePublic(t *testing.T) {
	env := newTestEnv(t)
	env.users.EXPECT().ListAuthors(gomock.Any(), gomock.Any()).Return([]models.User{
		{BaseModel: models.BaseModel{ID: "a1"}, Username: "ada", Email: "ada@example.com", Role: string(acl.RoleAuthor)},
	}, int64(1), nil)

	w := env.do(http.MethodGet, "/api/v1/authors", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "ada@example.com")
	assert.Equal(t, "authors 0-9/1", w.Header().Get("Content-Range"))
}

func TestMediaOwnership(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)
	own := &models.Media{BaseModel: models.BaseModel{ID: "m1"}, CreatedBy: "author-1"}
	other := &models.Media{BaseModel: models.BaseModel{ID: "m2"}, CreatedBy: "author-2"}

	env.media.EXPECT().Get(gomock.Any(), "m2").Return(other, nil).Times(2)
	w := env.do(http.MethodDelete, "/api/v1/media/m2", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(http.MethodGet, "/api/v1/media/m2", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.media.EXPECT().Get(gomock.Any(), "m1").Return(own, nil)
	env.media.EXPECT().Delete(gomock.Any(), own).Return(nil)
	w = env.do(http.MethodDelete, "/api/v1/media/m1", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	env.media.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q pagination.ListQuery) ([]models.Media, int64, error) {
			assert.Equal(t, "author-1", q.Filter["createdBy"])
			return []models.Media{*own}, 1, nil
		})
	w = env.do(http.MethodGet, "/api/v1/media", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.media.EXPECT().Get(gomock.Any(), "m2").Return(other, nil)
	env.media.EXPECT().Delete(gomock.Any(), other).Return(nil)
	w = env.do(http.MethodDelete, "/api/v1/media/m2", env.token(t, "admin-1", acl.RoleAdmin), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("altText", "A cat"))
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestMediaUpload(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	env.media.EXPECT().Upload(gomock.Any(), gomock.Any(), "author-1").
		DoAndReturn(func(_ context.Context, input services.UploadInput, owner string) (*models.Media, error) {
			assert.Equal(t, "image/png", input.ContentType)
			assert.Equal(t, "cat.png", input.Filename)
			require.NotNil(t, input.AltText)
			assert.Equal(t, "A cat", *input.AltText)
			return &models.Media{BaseModel: models.BaseModel{ID: "m1"}, CreatedBy: owner, Size: int64(len(input.Data))}, nil
		})

	body, contentType := multipartBody(t, "file", "cat.png", png)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	body, contentType = multipartBody(t, "file", "notes.txt", []byte("plain text file"))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, contentType = multipartBody(t, "file", "cat.png", png)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/media", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+env.token(t, "sub-1", acl.RoleSubscriber))
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMultiImageUploadRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "author-1", acl.RoleAuthor)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	first := &models.Media{BaseModel: models.BaseModel{ID: "m1"}, CreatedBy: "author-1"}
	gomock.InOrder(
		env.media.EXPECT().Upload(gomock.Any(), gomock.Any(), "author-1").Return(first, nil),
		env.media.EXPECT().Upload(gomock.Any(), gomock.Any(), "author-1").Return(nil, errors.New("bucket unavailable")),
		env.media.EXPECT().Delete(gomock.Any(), first).Return(nil),
	)

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, name := range []string{"a.png", "b.png"} {
		part, err := writer.CreateFormFile("images[]", name)
		require.NoError(t, err)
		_, err = part.Write(png)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/media", buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTaxonomyCategoryPermissions(t *testing.T) {
	env := newTestEnv(t)

	env.taxonomies.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q pagination.ListQuery) ([]models.Taxonomy, int64, error) {
			assert.Equal(t, models.TaxonomyTypeCategory, q.Filter["type"])
			return []models.Taxonomy{}, 0, nil
		})
	w := env.do(http.MethodGet, "/api/v1/taxonomies", env.token(t, "author-1", acl.RoleAuthor), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/v1/taxonomies", env.token(t, "author-1", acl.RoleAuthor), map[string]string{"type": "category", "name": "News"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	editor := env.token(t, "editor-1", acl.RoleEditor)
	env.taxonomies.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	w = env.do(http.MethodPost, "/api/v1/taxonomies", editor, map[string]string{"type": "category", "name": "News"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/v1/taxonomies", editor, map[string]string{"type": "tag", "name": "golang"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMenusReadableByGuests(t *testing.T) {
	env := newTestEnv(t)
	env.menus.EXPECT().Get(gomock.Any(), "main").Return(&models.Menu{BaseModel: models.BaseModel{ID: "main"}, Name: "Main"}, nil)

	w := env.do(http.MethodGet, "/api/v1/menus/main", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/api/v1/menus", "", map[string]string{"name": "Footer"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOptionsRequireManage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/options", env.token(t, "editor-1", acl.RoleEditor), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	env.options.EXPECT().Get(gomock.Any()).Return(&models.SiteSetting{SiteName: "Quill"}, nil)
	w = env.do(http.MethodGet, "/api/v1/options", env.token(t, "admin-1", acl.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidListQuery(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/v1/content?range=oops", env.token(t, "editor-1", acl.RoleEditor), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "range", decodeError(t, w).Details[0].Parameter)
}

func TestAccessLogRecordsDeniedStatus(t *testing.T) {
	env := newTestEnv(t)
	l := logger.GetLogger()
	previous := l.ReplaceHooks(make(logrus.LevelHooks))
	hook := logtest.NewLocal(l)
	t.Cleanup(func() { l.ReplaceHooks(previous) })

	w := env.do(http.MethodGet, "/api/v1/options", "", nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Message != "request completed" {
			continue
		}
		found = true
		assert.Equal(t, http.StatusForbidden, entry.Data["status"])
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, acl.RoleGuest, entry.Data["role"])
	}
	assert.True(t, found)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	env.health["database"] = handlers.PingFunc(func(context.Context) error { return nil })

	w := env.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.health["redis"] = handlers.PingFunc(func(context.Context) error { return errors.New("connection refused") })
	w = env.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
