// File: tests/integration/api_test.go
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"guidecheck_backend/internal/common"
	"guidecheck_backend/internal/config"
	"guidecheck_backend/internal/guide"
	"guidecheck_backend/internal/middleware"
	"guidecheck_backend/internal/scan"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testAdminToken = "test-admin-token"

// APITestSuite spins up the full HTTP surface against an in-memory sqlite
// database and a fixture docs tree. Elasticsearch stays disabled, so chapter
// search exercises the database fallback.
type APITestSuite struct {
	suite.Suite
	DB          *gorm.DB
	Router      *gin.Engine
	Cfg         *config.Config
	GuideSvc    guide.Service
	ScanSvc     scan.Service
	InitialScan *scan.Scan
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paginatedEnvelope struct {
	Status     string             `json:"status"`
	Data       json.RawMessage    `json:"data"`
	Pagination *common.Pagination `json:"pagination"`
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	docsRoot := s.T().TempDir()
	s.writeDocs(docsRoot, map[string]string{
		"go-basics/README.md": "# Go Basics\n\n1. [Setup](01-setup.md)\n2. [Tools](02-tools.md)\n",
		"go-basics/01-setup.md": "# Setup\n\n```go\nx := 1\n```\n\n" +
			"[Next >](02-tools.md) | [Back to Index](README.md)\n",
		"go-basics/02-tools.md": "# Tools\n\nBroken [link](missing.md).\n\n```\nuntagged\n```\n\n" +
			"[< Previous](01-setup.md) | [Back to Index](README.md)\n",
	})

	s.Cfg = &config.Config{
		GinMode:          gin.TestMode,
		DocsRoot:         docsRoot,
		ReportExportPath: filepath.Join(s.T().TempDir(), "reports"),
		AdminAPIToken:    testAdminToken,
	}

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)
	s.DB = db
	s.Require().NoError(db.AutoMigrate(&guide.Guide{}, &guide.Chapter{}, &scan.Scan{}, &scan.Finding{}))

	guideRepo := guide.NewGORMRepository(db)
	s.GuideSvc = guide.NewService(guideRepo, nil, logger, s.Cfg)
	scanRepo := scan.NewGORMRepository(db)
	s.ScanSvc = scan.NewService(scanRepo, s.GuideSvc, logger, s.Cfg)

	router := gin.New()
	router.Use(middleware.ZapLogger(logger, s.Cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	adminMW := middleware.AdminAuthMiddleware(s.Cfg, logger)
	v1 := router.Group("/api/v1")
	guide.NewHandler(s.GuideSvc, logger).RegisterRoutes(v1)
	scan.NewHandler(s.ScanSvc, logger).RegisterRoutes(v1, adminMW)
	s.Router = router

	// Seed the catalog and findings with one scan.
	initial, err := s.ScanSvc.Run(context.Background(), scan.TriggerStartup)
	s.Require().NoError(err)
	s.InitialScan = initial
}

func (s *APITestSuite) writeDocs(root string, files map[string]string) {
	for relPath, body := range files {
		full := filepath.Join(root, filepath.FromSlash(relPath))
		s.Require().NoError(os.MkdirAll(filepath.Dir(full), 0o755))
		s.Require().NoError(os.WriteFile(full, []byte(body), 0o644))
	}
}

func (s *APITestSuite) request(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decodeEnvelope(w *httptest.ResponseRecorder) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (s *APITestSuite) TestTriggerScanAndReadBack() {
	w := s.request(http.MethodPost, "/api/v1/scans", testAdminToken)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	env := s.decodeEnvelope(w)
	var created scan.ScanResponse
	s.Require().NoError(json.Unmarshal(env.Data, &created))
	s.Equal(scan.StatusCompleted, created.Status)
	s.Equal(scan.TriggerManual, created.Trigger)
	s.Equal(1, created.GuideCount)
	s.Equal(2, created.ChapterCount)
	s.Equal(2, created.FindingCount)
	s.Equal(1, created.ErrorCount)
	s.Equal(1, created.WarningCount)
	s.NotNil(created.ReportPath)

	w = s.request(http.MethodGet, "/api/v1/scans/"+created.ID.String()+"?include_findings=true", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var fetched scan.ScanResponse
	s.Require().NoError(json.Unmarshal(s.decodeEnvelope(w).Data, &fetched))
	s.Equal(created.ID, fetched.ID)
	s.Len(fetched.Findings, 2)

	w = s.request(http.MethodGet, "/api/v1/scans/latest", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var latest scan.ScanResponse
	s.Require().NoError(json.Unmarshal(s.decodeEnvelope(w).Data, &latest))
	s.Equal(created.ID, latest.ID)
}

func (s *APITestSuite) TestListScansIsPaginated() {
	w := s.request(http.MethodGet, "/api/v1/scans?page=1&page_size=5", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var env paginatedEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.Require().NotNil(env.Pagination)
	s.GreaterOrEqual(env.Pagination.TotalItems, int64(1))
}

func (s *APITestSuite) TestCatalogEndpoints() {
	w := s.request(http.MethodGet, "/api/v1/guides", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var guides []guide.GuideResponse
	s.Require().NoError(json.Unmarshal(s.decodeEnvelope(w).Data, &guides))
	s.Require().Len(guides, 1)
	s.Equal("go-basics", guides[0].Slug)
	s.Equal("Go Basics", guides[0].Title)
	s.Equal(2, guides[0].ChapterCount)

	w = s.request(http.MethodGet, "/api/v1/guides/go-basics?include_chapters=true", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var g guide.GuideResponse
	s.Require().NoError(json.Unmarshal(s.decodeEnvelope(w).Data, &g))
	s.Require().Len(g.Chapters, 2)
	s.Equal("Setup", g.Chapters[0].Title)
	s.Equal(1, g.Chapters[0].Number)

	w = s.request(http.MethodGet, "/api/v1/chapters/"+g.Chapters[0].ID.String(), "")
	s.Require().Equal(http.StatusOK, w.Code)
	var ch guide.ChapterResponse
	s.Require().NoError(json.Unmarshal(s.decodeEnvelope(w).Data, &ch))
	s.Equal("go-basics/01-setup.md", ch.Path)
	s.Equal("go-basics", ch.GuideSlug)

	w = s.request(http.MethodGet, "/api/v1/guides/no-such-guide", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestChapterSearchFallsBackToDatabase() {
	w := s.request(http.MethodGet, "/api/v1/chapters/search?q=setup", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var env paginatedEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	var chapters []guide.ChapterResponse
	s.Require().NoError(json.Unmarshal(env.Data, &chapters))
	s.Require().Len(chapters, 1)
	s.Equal("Setup", chapters[0].Title)

	w = s.request(http.MethodGet, "/api/v1/chapters/search", "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestChapterCountMatchesCatalog() {
	// The sync-chapters command reports this count before bulk indexing.
	repo := guide.NewGORMRepository(s.DB)
	total, err := repo.CountChapters(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(2), total)
}

func (s *APITestSuite) TestFindingFiltersAndResolve() {
	scanID := s.InitialScan.ID.String()

	w := s.request(http.MethodGet, "/api/v1/scans/"+scanID+"/findings?severity=error", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var env paginatedEnvelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	var findings []scan.FindingResponse
	s.Require().NoError(json.Unmarshal(env.Data, &findings))
	s.Require().Len(findings, 1)
	s.Equal("LINK_TARGET_MISSING", findings[0].Rule)
	s.Equal("go-basics/02-tools.md", findings[0].Path)
	s.False(findings[0].Resolved)

	w = s.request(http.MethodGet, "/api/v1/scans/"+scanID+"/findings?rule=fence_language_missing", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.Require().NoError(json.Unmarshal(env.Data, &findings))
	s.Require().Len(findings, 1)
	s.Equal("FENCE_LANGUAGE_MISSING", findings[0].Rule)

	w = s.request(http.MethodGet, "/api/v1/scans/"+scanID+"/findings?severity=fatal", "")
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	// Resolve the error finding, then filter on resolved state.
	w = s.request(http.MethodGet, "/api/v1/scans/"+scanID+"/findings?severity=error", "")
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.Require().NoError(json.Unmarshal(env.Data, &findings))
	findingID := findings[0].ID.String()

	w = s.request(http.MethodPatch, "/api/v1/findings/"+findingID+"/resolve", testAdminToken)
	s.Require().Equal(http.StatusOK, w.Code)
	var resolved scan.FindingResponse
	s.Require().NoError(json.Unmarshal(s.decodeEnvelope(w).Data, &resolved))
	s.True(resolved.Resolved)
	s.NotNil(resolved.ResolvedAt)

	// Resolving again stays a 200 no-op.
	w = s.request(http.MethodPatch, "/api/v1/findings/"+findingID+"/resolve", testAdminToken)
	s.Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/scans/"+scanID+"/findings?resolved=true", "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	s.Require().NoError(json.Unmarshal(env.Data, &findings))
	s.Require().Len(findings, 1)
	s.Equal(findingID, findings[0].ID.String())
}

func (s *APITestSuite) TestScanLookupErrors() {
	w := s.request(http.MethodGet, "/api/v1/scans/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodGet, "/api/v1/scans/"+uuid.NewString(), "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.request(http.MethodGet, "/api/v1/scans/"+uuid.NewString()+"/findings", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestAdminEndpointsRequireToken() {
	w := s.request(http.MethodPost, "/api/v1/scans", "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodPost, "/api/v1/scans", "wrong-token")
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodPatch, "/api/v1/findings/"+uuid.NewString()+"/resolve", "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestAdminSurfaceDisabledWithoutToken() {
	logger := zap.NewNop()
	cfg := &config.Config{DocsRoot: s.Cfg.DocsRoot}

	router := gin.New()
	router.Use(middleware.ErrorHandler(logger))
	adminMW := middleware.AdminAuthMiddleware(cfg, logger)
	v1 := router.Group("/api/v1")
	scan.NewHandler(s.ScanSvc, logger).RegisterRoutes(v1, adminMW)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
