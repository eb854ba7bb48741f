package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vidshare/backend/pkg/apperr"
)

func run(fn func(c *gin.Context)) (*httptest.ResponseRecorder, Body) {
	gin.SetMode(gin.TestMode)
	rr := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rr)
	fn(c)
	var b Body
	_ = json.Unmarshal(rr.Body.Bytes(), &b)
	return rr, b
}

func TestOKEnvelope(t *testing.T) {
	rr, b := run(func(c *gin.Context) { OK(c, gin.H{"n": 1}, "done") })
	if rr.Code != http.StatusOK || !b.Success || b.StatusCode != http.StatusOK || b.Message != "done" {
		t.Fatalf("code %d body %+v", rr.Code, b)
	}
	if b.Data == nil {
		t.Fatal("missing data")
	}
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperr.NotFound("video not found"), http.StatusNotFound, "video not found"},
		{apperr.InvalidInput("page must be a positive integer"), http.StatusBadRequest, "page must be a positive integer"},
		{apperr.Upstream("failed to upload video", errors.New("s3 down")), http.StatusBadGateway, "failed to upload video"},
		{errors.New("secret detail"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range tests {
		rr, b := run(func(c *gin.Context) { Error(c, tc.err) })
		if rr.Code != tc.status || b.Success || b.StatusCode != tc.status || b.Message != tc.message {
			t.Errorf("Error(%v): code %d body %+v", tc.err, rr.Code, b)
		}
		if b.Data != nil {
			t.Errorf("Error(%v): unexpected data %v", tc.err, b.Data)
		}
	}
}
