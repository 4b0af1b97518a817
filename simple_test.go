package main

import (
	"bulletin/config"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	openapi3_routers "github.com/getkin/kin-openapi/routers"
	openapi3_legacy "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/motemen/go-loghttp"
	"github.com/stretchr/testify/suite"
)

//go:embed api.yaml
var apiSpec []byte

var ctx = context.Background()

func TestAPI(t *testing.T) {
	suite.Run(t, &APISuite{mode: config.InMemory})
}

func TestAPIWithRedis(t *testing.T) {
	suite.Run(t, &APISuite{mode: config.Redis})
}

type APISuite struct {
	suite.Suite

	mode          config.StorageMode
	redis         *miniredis.Miniredis
	server        *httptest.Server
	cleanup       func(context.Context) error
	client        http.Client
	apiSpecRouter openapi3_routers.Router
}

func (s *APISuite) SetupSuite() {
	cfg := &config.ServerConfig{
		Port:           "0",
		StorageMode:    s.mode,
		RequestTimeout: 5 * time.Second,
		RemoteTimeout:  time.Second,
		LogLevel:       "debug",
	}
	if s.mode == config.Redis {
		mr, err := miniredis.Run()
		s.Require().NoError(err)
		s.redis = mr
		cfg.RedisUrl = "redis://" + mr.Addr()
	}
	srv, cleanup, err := CreateServer(ctx, cfg)
	s.Require().NoError(err)
	s.cleanup = cleanup
	s.server = httptest.NewServer(srv.Handler)

	spec, err := openapi3.NewLoader().LoadFromData(apiSpec)
	s.Require().NoError(err)
	s.Require().NoError(spec.Validate(ctx))
	router, err := openapi3_legacy.NewRouter(spec)
	s.Require().NoError(err)
	s.apiSpecRouter = router
	s.client.Transport = s.specValidating(&loghttp.Transport{
		Transport: http.DefaultTransport,
		LogRequest: func(req *http.Request) {
			slog.Debug("Send HTTP request", "method", req.Method, "url", req.URL.String())
		},
		LogResponse: func(resp *http.Response) {
			slog.Debug("Got HTTP response", "status", resp.StatusCode, "url", resp.Request.URL.String())
		},
	})
}

func (s *APISuite) TearDownSuite() {
	s.server.Close()
	s.NoError(s.cleanup(ctx))
	if s.redis != nil {
		s.redis.Close()
	}
}

func (s *APISuite) specValidating(transport http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		reqBody := s.readAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))

		// validate request
		route, params, err := s.apiSpecRouter.FindRoute(req)
		s.Require().NoError(err)
		reqDescriptor := &openapi3filter.RequestValidationInput{
			Request:     req,
			PathParams:  params,
			QueryParams: req.URL.Query(),
			Route:       route,
		}
		s.Require().NoError(openapi3filter.ValidateRequest(ctx, reqDescriptor))

		// do request
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
		resp, err := transport.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		respBody := s.readAll(resp.Body)

		// validate response
		s.Require().NoError(openapi3filter.ValidateResponse(ctx, &openapi3filter.ResponseValidationInput{
			RequestValidationInput: reqDescriptor,
			Status:                 resp.StatusCode,
			Header:                 resp.Header,
			Body:                   io.NopCloser(bytes.NewReader(respBody)),
		}))

		resp.Body = io.NopCloser(bytes.NewReader(respBody))
		return resp, nil
	})
}

func (s *APISuite) readAll(in io.Reader) []byte {
	if in == nil {
		return nil
	}
	data, err := io.ReadAll(in)
	s.Require().NoError(err)
	return data
}

type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (fn RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return fn(req)
}

// do sends a request and decodes the JSON response into out when given.
func (s *APISuite) do(method, path, body string, out interface{}) int {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *APISuite) persisted() bool {
	return s.mode != config.InMemory
}

type post struct {
	Id        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	Shares    int    `json:"shares"`
	Liked     bool   `json:"liked"`
	Persisted bool   `json:"persisted"`
	Warning   string `json:"warning"`
}

type postList struct {
	Posts []post `json:"posts"`
}

func (s *APISuite) TestSimple() {
	// Create post
	var p post
	s.Require().Equal(http.StatusCreated, s.do("POST", "/api/v1/posts", `{"content": "hello", "author": "alice"}`, &p))
	s.Require().NotEmpty(p.Id)
	s.Require().Zero(p.Likes)
	s.Require().Zero(p.Comments)
	s.Require().NotEmpty(p.CreatedAt)
	s.Require().Equal(s.persisted(), p.Persisted)

	// Like it
	var patched post
	s.Require().Equal(http.StatusOK, s.do("PATCH", "/api/v1/posts/"+p.Id, `{"likes": 1}`, &patched))
	s.Require().Equal(1, patched.Likes)
	s.Require().Equal(p.Content, patched.Content)
	s.Require().Equal(p.CreatedAt, patched.CreatedAt)

	// Listing shows the like
	var list postList
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/posts", "", &list))
	s.Require().NotEmpty(list.Posts)
	s.Require().Equal(p.Id, list.Posts[0].Id)
	s.Require().Equal(1, list.Posts[0].Likes)

	// Delete it
	s.Require().Equal(http.StatusOK, s.do("DELETE", "/api/v1/posts/"+p.Id, "", nil))
	s.Require().Equal(http.StatusNotFound, s.do("GET", "/api/v1/posts/"+p.Id, "", nil))

	list = postList{}
	s.Require().Equal(http.StatusOK, s.do("GET", "/api/v1/posts", "", &list))
	for _, other := range list.Posts {
		s.Require().NotEqual(p.Id, other.Id)
	}

	if s.redis != nil {
		s.Require().True(s.redis.Exists("posts"))
	}
}

func (s *APISuite) TestHealth() {
	var health struct {
		Status           string `json:"status"`
		RemoteConfigured bool   `json:"remoteConfigured"`
		Backend          string `json:"backend"`
	}
	s.Require().Equal(http.StatusOK, s.do("GET", "/maintenance/ping", "", &health))
	s.Require().Equal("ok", health.Status)
	s.Require().Equal(s.persisted(), health.RemoteConfigured)
	if s.persisted() {
		s.Require().Equal("redis", health.Backend)
	} else {
		s.Require().Equal("none", health.Backend)
	}
}
