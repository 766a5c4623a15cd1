package report_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/insight-deck/core/internal/database"
	"github.com/insight-deck/core/internal/models"
	"github.com/insight-deck/core/internal/modules/admission"
	"github.com/insight-deck/core/internal/modules/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const fundedToken = "abcdefghijklmnopqrstuvwxyzabcdef"

// newReportRouter wires the download route exactly as the app does, with a
// pre-funded session so the tests exercise the quota path, not proof-of-work.
func newReportRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	now := time.Now()
	require.NoError(t, db.Create(&models.SessionModel{
		Token:           fundedToken,
		LastUsedAt:      now,
		BudgetUnits:     admission.MaxBudgetUnits,
		BudgetExpiresAt: now.Add(admission.BudgetTTL),
	}).Error)

	engine := admission.NewEngine(db, admission.NewPowAdapter("report-test-secret", 64))
	admissionH := admission.NewHandler(engine, zap.NewNop())
	handler := report.NewHandler(engine, admissionH, zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, admissionH.Budget(report.Cost))
	return router, db
}

func postReport(router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/report", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+fundedToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func validDocument() gin.H {
	return gin.H{
		"title": "Weekly reflection",
		"selections": []gin.H{
			{"cardTitle": "What went well?", "answer": "Shipping on time."},
		},
	}
}

func TestDownloadReturnsAttachment(t *testing.T) {
	router, db := newReportRouter(t)

	w := postReport(router, validDocument())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="reflection-report.html"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "What went well?")
	assert.Equal(t, "2", w.Header().Get(admission.ReportsRemainingHeader))

	// The download both consumed quota and debited the budget.
	var s models.SessionModel
	require.NoError(t, db.First(&s, "token = ?", fundedToken).Error)
	assert.Equal(t, admission.MaxBudgetUnits-report.Cost, s.BudgetUnits)

	var events int64
	require.NoError(t, db.Model(&models.ReportEventModel{}).Count(&events).Error)
	assert.EqualValues(t, 1, events)
}

func TestDownloadRemainingHeaderCountsDown(t *testing.T) {
	router, _ := newReportRouter(t)

	for _, want := range []string{"2", "1", "0"} {
		w := postReport(router, validDocument())
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Header().Get(admission.ReportsRemainingHeader))
	}

	w := postReport(router, validDocument())
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "daily_limit_exceeded", body.Error)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestDownloadValidationFailureConsumesNothing(t *testing.T) {
	router, db := newReportRouter(t)

	for _, body := range []gin.H{
		{},
		{"selections": []gin.H{}},
		{"selections": []gin.H{{"prompt": "no title"}}},
	} {
		w := postReport(router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	var events int64
	require.NoError(t, db.Model(&models.ReportEventModel{}).Count(&events).Error)
	assert.Zero(t, events, "rejected documents must not consume quota")

	// The budget middleware ran before validation, so each attempt was
	// debited; only the quota is protected from failed requests.
	var s models.SessionModel
	require.NoError(t, db.First(&s, "token = ?", fundedToken).Error)
	assert.Equal(t, admission.MaxBudgetUnits-3*report.Cost, s.BudgetUnits)
}

func TestDownloadTooManySelectionsRejected(t *testing.T) {
	router, _ := newReportRouter(t)

	selections := make([]gin.H, 13)
	for i := range selections {
		selections[i] = gin.H{"cardTitle": fmt.Sprintf("Card %d", i)}
	}
	w := postReport(router, gin.H{"selections": selections})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
