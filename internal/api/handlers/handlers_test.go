package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

type fakeReportAPI struct {
	askErr    error
	gotRef    models.SourceRef
	gotQ      string
	gotPage   [2]int
	page      models.ReportPage
	pageErr   error
	sessionID string
	streamErr error
}

func (f *fakeReportAPI) Ask(_ context.Context, ref models.SourceRef, q string) (*models.Report, error) {
	f.gotRef, f.gotQ = ref, q
	if f.askErr != nil {
		return nil, f.askErr
	}
	return &models.Report{ID: "r1", SourceType: ref.Type, SourceID: ref.ID, Content: "1. answer"}, nil
}

func (f *fakeReportAPI) CreateFromContent(_ context.Context, ref models.SourceRef, content string) (*models.Report, error) {
	f.gotRef = ref
	if f.askErr != nil {
		return nil, f.askErr
	}
	return &models.Report{ID: "r2", SourceType: ref.Type, SourceID: ref.ID, Content: content}, nil
}

func (f *fakeReportAPI) GetPage(_ context.Context, id string, page, pageSize int) (models.ReportPage, error) {
	f.gotPage = [2]int{page, pageSize}
	if f.pageErr != nil {
		return models.ReportPage{}, f.pageErr
	}
	if id != "r1" {
		return models.ReportPage{}, fmt.Errorf("%w: %s", core.ErrReportNotFound, id)
	}
	return f.page, nil
}

func (f *fakeReportAPI) StartStream(_ context.Context, ref models.SourceRef, sessionID string) (string, error) {
	f.gotRef = ref
	if f.streamErr != nil {
		return "", f.streamErr
	}
	if sessionID == "" {
		sessionID = f.sessionID
	}
	return sessionID, nil
}

func newRouter(t *testing.T, api *fakeReportAPI) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	chat := NewChatHandler(api, api, logger)
	rep := NewReportHandler(api, logger)

	r := chi.NewRouter()
	r.Post("/api/chat/ask", chat.Ask)
	r.Post("/api/chat/stream", chat.Stream)
	r.Post("/api/reports", rep.Create)
	r.Get("/api/reports/{id}", rep.GetPage)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestAskReturnsReport(t *testing.T) {
	api := &fakeReportAPI{}
	rec := do(t, newRouter(t, api), http.MethodPost, "/api/chat/ask",
		`{"sourceType":"paper","sourceId":7,"userQuestion":"what is new?"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, "1. answer", got.Content)
	assert.Equal(t, models.PaperRef(7), api.gotRef)
	assert.Equal(t, "what is new?", api.gotQ)
}

func TestAskRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"sourceType":`},
		{"unknown type", `{"sourceType":"video","sourceId":1,"userQuestion":"q"}`},
		{"zero id", `{"sourceType":"paper","sourceId":0,"userQuestion":"q"}`},
		{"no question", `{"sourceType":"blog","sourceId":1,"userQuestion":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newRouter(t, &fakeReportAPI{}), http.MethodPost, "/api/chat/ask", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_input", decodeError(t, rec).Kind)
		})
	}
}

func TestAskMapsPipelineErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{core.ErrSourceNotFound, http.StatusNotFound, "source_not_found"},
		{core.ErrFileMissing, http.StatusConflict, "file_missing"},
		{core.ErrExtraction, http.StatusUnprocessableEntity, "extraction_failed"},
		{core.GenerationFailure("generate", errors.New("boom")), http.StatusBadGateway, "generation_failed"},
		{core.GenerationFailure("generate", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			api := &fakeReportAPI{askErr: fmt.Errorf("wrapped: %w", tt.err)}
			rec := do(t, newRouter(t, api), http.MethodPost, "/api/chat/ask",
				`{"sourceType":"paper","sourceId":1,"userQuestion":"q"}`)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	api := &fakeReportAPI{askErr: errors.New("password=hunter2")}
	rec := do(t, newRouter(t, api), http.MethodPost, "/api/chat/ask",
		`{"sourceType":"paper","sourceId":1,"userQuestion":"q"}`)
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestStreamAcknowledges(t *testing.T) {
	api := &fakeReportAPI{sessionID: "generated"}
	h := newRouter(t, api)

	rec := do(t, h, http.MethodPost, "/api/chat/stream", `{"sourceType":"blog","sourceId":3}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var got StreamResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, StreamResponse{Message: "Streaming started", SessionID: "generated"}, got)
	assert.Equal(t, models.BlogRef(3), api.gotRef)

	rec = do(t, h, http.MethodPost, "/api/chat/stream", `{"sourceType":"blog","sourceId":3,"sessionId":"mine"}`)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "mine", got.SessionID)
}

func TestStreamSurfacesResolutionErrors(t *testing.T) {
	api := &fakeReportAPI{streamErr: fmt.Errorf("%w: paper/9", core.ErrSourceNotFound)}
	rec := do(t, newRouter(t, api), http.MethodPost, "/api/chat/stream", `{"sourceType":"paper","sourceId":9}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReport(t *testing.T) {
	api := &fakeReportAPI{}
	rec := do(t, newRouter(t, api), http.MethodPost, "/api/reports",
		`{"sourceType":"paper","sourceId":2,"content":"1. a\n2. b"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "1. a\n2. b", got.Content)
	assert.Equal(t, models.PaperRef(2), api.gotRef)
}

func TestGetPageDefaultsAndParams(t *testing.T) {
	api := &fakeReportAPI{page: models.ReportPage{Page: 2, PageSize: 3, TotalPages: 4, Content: []string{"x"}}}
	h := newRouter(t, api)

	rec := do(t, h, http.MethodGet, "/api/reports/r1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]int{1, 1}, api.gotPage)

	rec = do(t, h, http.MethodGet, "/api/reports/r1?page=2&pageSize=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]int{2, 3}, api.gotPage)
	assert.JSONEq(t, `{"page":2,"pageSize":3,"totalPages":4,"content":["x"]}`, rec.Body.String())
}

func TestGetPageErrors(t *testing.T) {
	h := newRouter(t, &fakeReportAPI{})

	rec := do(t, h, http.MethodGet, "/api/reports/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "report_not_found", decodeError(t, rec).Kind)

	rec = do(t, h, http.MethodGet, "/api/reports/r1?page=two", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}
