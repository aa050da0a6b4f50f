package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lintang-b-s/Pathviz/pkg/http/router/controllers"
	"github.com/lintang-b-s/Pathviz/pkg/http/usecases"
	"github.com/lintang-b-s/Pathviz/pkg/render"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type sessionData struct {
	ID         string `json:"id"`
	Algorithm  string `json:"algorithm"`
	Status     string `json:"status"`
	Steps      int    `json:"steps"`
	PathCost   int    `json:"path_cost"`
	PathLength int    `json:"path_length"`
	Path       string `json:"path"`
}

type APISuite struct {
	suite.Suite
	handler http.Handler
}

func (s *APISuite) SetupTest() {
	svc, err := usecases.NewSessionService(zap.NewNop(), 8, render.NewRenderer(10), 0)
	s.Require().NoError(err)
	s.handler = NewAPI(zap.NewNop()).Handler(svc, false)
}

func (s *APISuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decodeSession(rec *httptest.ResponseRecorder) sessionData {
	var resp struct {
		Data sessionData `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data
}

func (s *APISuite) createSession(body string) string {
	rec := s.do(http.MethodPost, "/api/sessions", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	data := s.decodeSession(rec)
	s.Require().NotEmpty(data.ID)
	s.Equal("/api/sessions/"+data.ID, rec.Header().Get("Location"))
	return data.ID
}

func (s *APISuite) TestHeartbeat() {
	rec := s.do(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(".", rec.Body.String())
}

func (s *APISuite) TestAlgorithms() {
	rec := s.do(http.MethodGet, "/api/algorithms", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp struct {
		Data []struct {
			Name        string `json:"name"`
			Incremental bool   `json:"incremental"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Len(resp.Data, 7)
	s.Equal("dijkstra", resp.Data[0].Name)
	for _, a := range resp.Data {
		s.Equal(a.Name == "lpastar", a.Incremental)
	}
}

func (s *APISuite) TestSessionLifecycle() {
	id := s.createSession(`{"algorithm":"astar","start":"0,0","target":"11,14"}`)

	rec := s.do(http.MethodPost, "/api/sessions/"+id+"/step", `{"count":3}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(3, s.decodeSession(rec).Steps)

	// an empty body steps once
	rec = s.do(http.MethodPost, "/api/sessions/"+id+"/step", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(4, s.decodeSession(rec).Steps)

	rec = s.do(http.MethodPost, "/api/sessions/"+id+"/run", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	data := s.decodeSession(rec)
	s.Equal("success", data.Status)
	s.Equal(184, data.PathCost)
	s.Equal(15, data.PathLength)
	path, err := usecases.DecodePath(data.Path)
	s.Require().NoError(err)
	s.Len(path, 15)

	rec = s.do(http.MethodPut, "/api/sessions/"+id+"/obstacles", `{"add":[{"row":5,"col":5},{"row":6,"col":6}]}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("in_progress", s.decodeSession(rec).Status)

	rec = s.do(http.MethodPost, "/api/sessions/"+id+"/obstacles/toggle", `{"cell":{"row":5,"col":5}}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, "/api/sessions/"+id+"/start", `{"cell":{"row":6,"col":6},"snap":true}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/sessions/"+id+"/restart", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(0, s.decodeSession(rec).Steps)

	rec = s.do(http.MethodGet, "/api/sessions/"+id+"/image", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
	s.True(bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = s.do(http.MethodDelete, "/api/sessions/"+id, "")
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/sessions/"+id, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APISuite) TestBadRequests() {
	id := s.createSession(`{"rows":4,"cols":4}`)

	testCases := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"unknown algorithm", http.MethodPost, "/api/sessions", `{"algorithm":"bfs"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/sessions", `{"algo":"astar"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/api/sessions", `{"rows":`, http.StatusBadRequest},
		{"bad point", http.MethodPost, "/api/sessions", `{"start":"1;2"}`, http.StatusBadRequest},
		{"start outside", http.MethodPost, "/api/sessions", `{"rows":4,"cols":4,"start":"9,9"}`, http.StatusBadRequest},
		{"bad map value", http.MethodPost, "/api/sessions", `{"map":[[0,2],[0,0]]}`, http.StatusBadRequest},
		{"density above one", http.MethodPost, "/api/sessions", `{"obstacle_density":1.5}`, http.StatusBadRequest},
		{"zero step count", http.MethodPost, "/api/sessions/" + id + "/step", `{"count":0}`, http.StatusBadRequest},
		{"obstacle on target", http.MethodPut, "/api/sessions/" + id + "/obstacles", `{"add":[{"row":3,"col":3}]}`, http.StatusBadRequest},
		{"negative cell", http.MethodPost, "/api/sessions/" + id + "/obstacles/toggle", `{"cell":{"row":-1,"col":0}}`, http.StatusBadRequest},
		{"missing session", http.MethodPost, "/api/sessions/nope/step", "", http.StatusNotFound},
		{"missing session image", http.MethodGet, "/api/sessions/nope/image", "", http.StatusNotFound},
	}
	for _, tt := range testCases {
		s.Run(tt.name, func() {
			rec := s.do(tt.method, tt.path, tt.body)
			s.Equal(tt.status, rec.Code, rec.Body.String())
			s.Contains(rec.Body.String(), `"error"`)
		})
	}
}

func (s *APISuite) TestEnforceJSON() {
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	s.Equal(http.StatusUnsupportedMediaType, rec.Code)
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

type panickingService struct {
	controllers.SessionService
}

func (panickingService) Algorithms() []string {
	panic("boom")
}

func TestRecoverPanic(t *testing.T) {
	h := NewAPI(zap.NewNop()).Handler(panickingService{}, false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/algorithms", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func TestRateLimit(t *testing.T) {
	viper.Set("RATE_LIMIT_RPS", 0.001)
	viper.Set("RATE_LIMIT_BURST", 1)
	defer func() {
		viper.Set("RATE_LIMIT_RPS", 20)
		viper.Set("RATE_LIMIT_BURST", 40)
	}()

	svc, err := usecases.NewSessionService(zap.NewNop(), 8, render.NewRenderer(10), 0)
	require.NoError(t, err)
	h := NewAPI(zap.NewNop()).Handler(svc, true)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/algorithms", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"x-real-ip", map[string]string{"X-Real-IP": "10.0.0.1"}, "10.0.0.1"},
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.2, 10.0.0.3"}, "10.0.0.2"},
		{"garbage", map[string]string{"X-Real-IP": "not-an-ip"}, ""},
		{"none", nil, ""},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, realIP(req))
		})
	}
}
