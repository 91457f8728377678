package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quikko-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupCMSTest(t *testing.T) (*CMSHandler, sqlmock.Sqlmock, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	handler := NewCMSHandler(db, nil, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/cms", handler.GetContent)

	return handler, mock, router
}

func cmsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "type", "title", "body", "image_url"})
}

func TestCMSHandler_GetContent_FiltersByType(t *testing.T) {
	handler, mock, router := setupCMSTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, type, title, body, image_url FROM cms_contents").
		WithArgs("banner").
		WillReturnRows(cmsRows().
			AddRow(1, "banner", "Summer Sale", "Up to 50% off", "sale.png").
			AddRow(2, "banner", "New Arrivals", "Fresh stock", "new.png"))

	req := httptest.NewRequest("GET", "/cms?type=banner", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var contents []models.CMSContent
	if err := json.Unmarshal(w.Body.Bytes(), &contents); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(contents) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(contents))
	}
	if contents[0].Title != "Summer Sale" {
		t.Errorf("Expected Summer Sale first, got %s", contents[0].Title)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCMSHandler_GetContent_FiltersByTypeAndTitle(t *testing.T) {
	handler, mock, router := setupCMSTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, type, title, body, image_url FROM cms_contents").
		WithArgs("page", "About Us").
		WillReturnRows(cmsRows().AddRow(3, "page", "About Us", "Our story", ""))

	req := httptest.NewRequest("GET", "/cms?type=page&title=About+Us", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var contents []models.CMSContent
	if err := json.Unmarshal(w.Body.Bytes(), &contents); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(contents) != 1 || contents[0].Body != "Our story" {
		t.Errorf("Unexpected contents: %+v", contents)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCMSHandler_GetContent_NoMatchesReturnsEmptyList(t *testing.T) {
	handler, mock, router := setupCMSTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT id, type, title, body, image_url FROM cms_contents").
		WillReturnRows(cmsRows())

	req := httptest.NewRequest("GET", "/cms", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if w.Body.String() != "[]" {
		t.Errorf("Expected an empty JSON array, got %s", w.Body.String())
	}
}
