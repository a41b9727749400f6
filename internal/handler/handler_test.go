package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-catalog-api/internal/auth"
	"github.com/iliyamo/movie-catalog-api/internal/model"
	"github.com/iliyamo/movie-catalog-api/internal/repository"
	"github.com/iliyamo/movie-catalog-api/internal/service"
	"github.com/iliyamo/movie-catalog-api/internal/session"
	"github.com/iliyamo/movie-catalog-api/internal/utils"
)

const secret = "handler-test-secret-0123456789"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type stubRegistrar struct {
	err  error
	got  service.RegisterInput
	hits int
}

func (s *stubRegistrar) Register(_ context.Context, in service.RegisterInput) (*model.User, error) {
	s.hits++
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.User{ID: 1, Username: in.Username}, nil
}

type memUsers map[string]*model.User

func (m memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := m[username]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	for _, u := range m {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func serve(e *echo.Echo, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"created", nil, http.StatusOK, "User Registered Successfully!"},
		{"missing fields", &repository.ValidationError{Fields: []string{"password"}}, http.StatusBadRequest, "ERROR: User Not Registered. All Fields Are Required"},
		{"duplicate", repository.ErrUsernameExists, http.StatusConflict, "User not Registered Successfully!"},
		{"store failure", errors.New("db down"), http.StatusInternalServerError, "User not Registered Successfully!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &stubRegistrar{err: tt.err}
			h := &AuthHandler{Registrar: reg, Log: quietLogger()}
			e := echo.New()
			e.POST("/api/register", h.Register)

			rec := serve(e, http.MethodPost, "/api/register",
				`{"username":"neo","EmailAddress":"neo@zion.io","FirstName":"Thomas","LastName":"Anderson","password":"x"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.err == nil, body["success"])
			assert.Equal(t, tt.wantMsg, body["msg"])
			assert.Equal(t, "neo@zion.io", reg.got.EmailAddress)
			assert.Equal(t, "Anderson", reg.got.LastName)
		})
	}
}

func newAuthHandler(t *testing.T) (*AuthHandler, *miniredis.Miniredis, *model.User) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hash, err := utils.HashPassword("red-pill", bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{ID: 1, Username: "neo", EmailAddress: "neo@zion.io", DisplayName: "Thomas Anderson", PasswordHash: hash}
	users := memUsers{"neo": u}

	return &AuthHandler{
		Local:      auth.NewLocalAuthenticator(users),
		Tokens:     auth.NewBearerAuthenticator(users, secret, time.Hour),
		Sessions:   session.NewStore(rdb, secret, "sess", time.Hour),
		CookieName: "movie.sid",
		Log:        quietLogger(),
	}, mr, u
}

func TestLogin_SessionAndToken(t *testing.T) {
	h, mr, u := newAuthHandler(t)
	e := echo.New()
	e.POST("/api/login", h.Login)

	rec := serve(e, http.MethodPost, "/api/login", `{"username":"neo","password":"red-pill"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "User Logged In Successfully!", body["msg"])
	assert.Nil(t, body["data"])
	assert.Equal(t, map[string]any{
		"id": float64(1), "username": "neo", "emailAddress": "neo@zion.io", "displayName": "Thomas Anderson",
	}, body["user"])

	claims, err := utils.ParseAccessToken(secret, body["token"].(string))
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "movie.sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Len(t, mr.Keys(), 1)

	// A second login carrying the first cookie replaces the session.
	rec2 := serve(e, http.MethodPost, "/api/login", `{"username":"neo","password":"red-pill"}`,
		func(r *http.Request) { r.AddCookie(cookies[0]) })
	require.Equal(t, http.StatusOK, rec2.Code)
	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.NotEqual(t, cookies[0].Value, rec2.Result().Cookies()[0].Value)
}

func TestLogin_Rejected(t *testing.T) {
	h, mr, _ := newAuthHandler(t)
	e := echo.New()
	e.POST("/api/login", h.Login)

	for _, body := range []string{
		`{"username":"neo","password":"blue-pill"}`,
		`{"username":"smith","password":"red-pill"}`,
		`{}`,
	} {
		rec := serve(e, http.MethodPost, "/api/login", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		got := decode(t, rec)
		assert.Equal(t, false, got["success"])
		assert.Equal(t, "ERROR: User Not Logged in.", got["msg"])
		assert.NotContains(t, got, "token")
		assert.Empty(t, rec.Result().Cookies())
	}
	assert.Empty(t, mr.Keys())
}

func TestLogout(t *testing.T) {
	h, mr, _ := newAuthHandler(t)
	e := echo.New()
	e.POST("/api/login", h.Login)
	e.GET("/api/logout", h.Logout)

	login := serve(e, http.MethodPost, "/api/login", `{"username":"neo","password":"red-pill"}`)
	require.Equal(t, http.StatusOK, login.Code)
	ck := login.Result().Cookies()[0]
	require.Len(t, mr.Keys(), 1)

	rec := serve(e, http.MethodGet, "/api/logout", "", func(r *http.Request) { r.AddCookie(ck) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User Logged out Successfully!", decode(t, rec)["msg"])
	assert.Empty(t, mr.Keys())
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Negative(t, rec.Result().Cookies()[0].MaxAge)

	// Without any session logout still succeeds.
	rec = serve(e, http.MethodGet, "/api/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogout_RecordsEndedSession(t *testing.T) {
	h, mr, u := newAuthHandler(t)
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	h.Log = log
	e := echo.New()
	e.POST("/api/login", h.Login)
	e.GET("/api/logout", h.Logout)

	login := serve(e, http.MethodPost, "/api/login", `{"username":"neo","password":"red-pill"}`)
	require.Equal(t, http.StatusOK, login.Code)
	ck := login.Result().Cookies()[0]

	hook.Reset()
	rec := serve(e, http.MethodGet, "/api/logout", "", func(r *http.Request) { r.AddCookie(ck) })
	require.Equal(t, http.StatusOK, rec.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "logout: session ended", entry.Message)
	assert.Equal(t, u.ID, entry.Data["user_id"])
	assert.Empty(t, mr.Keys())

	// The same cookie again names a session that is already gone.
	hook.Reset()
	rec = serve(e, http.MethodGet, "/api/logout", "", func(r *http.Request) { r.AddCookie(ck) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logout: no active session", hook.LastEntry().Message)

	// A cookie that was never signed by the store is ignored.
	hook.Reset()
	forged := &http.Cookie{Name: "movie.sid", Value: xid.New().String() + ".forged"}
	rec = serve(e, http.MethodGet, "/api/logout", "", func(r *http.Request) { r.AddCookie(forged) })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logout: no active session", hook.LastEntry().Message)
}

type stubAuthenticator struct {
	u   *model.User
	err error
}

func (s stubAuthenticator) Name() string { return "stub" }

func (s stubAuthenticator) Authenticate(echo.Context) (*model.User, error) { return s.u, s.err }

func TestLogin_UsesConfiguredAuthenticator(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"rejection", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"store failure", errors.New("mysql gone"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, mr, _ := newAuthHandler(t)
			h.Local = stubAuthenticator{err: tc.err}
			e := echo.New()
			e.POST("/api/login", h.Login)

			rec := serve(e, http.MethodPost, "/api/login", `{"username":"neo","password":"red-pill"}`)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, "ERROR: User Not Logged in.", decode(t, rec)["msg"])
			assert.Empty(t, mr.Keys())
		})
	}

	// Whatever identity the authenticator resolves is the one logged in.
	h, mr, _ := newAuthHandler(t)
	trinity := &model.User{ID: 7, Username: "trinity"}
	h.Local = stubAuthenticator{u: trinity}
	e := echo.New()
	e.POST("/api/login", h.Login)
	rec := serve(e, http.MethodPost, "/api/login", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trinity", decode(t, rec)["user"].(map[string]any)["username"])
	assert.Len(t, mr.Keys(), 1)
}

type stubCatalog struct {
	movies  map[string]model.Movie
	err     error
	creates int
}

func (s *stubCatalog) List(context.Context) ([]model.Movie, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := []model.Movie{}
	for _, m := range s.movies {
		out = append(out, m)
	}
	return out, nil
}

func (s *stubCatalog) FindByID(_ context.Context, id string) (*model.Movie, error) {
	if !service.ValidID(id) {
		return nil, service.ErrMalformedID
	}
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.movies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *stubCatalog) Create(_ context.Context, _ *model.User, in model.MovieInput) (*model.Movie, error) {
	s.creates++
	if s.err != nil {
		return nil, s.err
	}
	m := in.Movie(xid.New().String())
	if err := repository.ValidateMovie(&m); err != nil {
		return nil, err
	}
	s.movies[m.ID] = m
	return &m, nil
}

func (s *stubCatalog) Update(_ context.Context, _ *model.User, id string, in model.MovieInput) (*model.Movie, error) {
	if !service.ValidID(id) {
		return nil, service.ErrMalformedID
	}
	m := in.Movie(id)
	if err := repository.ValidateMovie(&m); err != nil {
		return nil, err
	}
	if _, ok := s.movies[id]; !ok {
		return nil, repository.ErrNotFound
	}
	s.movies[id] = m
	return &m, nil
}

func (s *stubCatalog) Delete(_ context.Context, _ *model.User, id string) error {
	if !service.ValidID(id) {
		return service.ErrMalformedID
	}
	if _, ok := s.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.movies, id)
	return nil
}

func movieEcho(cat Catalog) *echo.Echo {
	h := NewMovieHandler(cat, quietLogger())
	e := echo.New()
	e.GET("/api/list", h.List)
	e.GET("/api/find/:id", h.Find)
	e.POST("/api/add", h.Add)
	e.PUT("/api/update/:id", h.Update)
	e.DELETE("/api/delete/:id", h.Delete)
	return e
}

const aliens = `{"movieID":"tt0090605","title":"Aliens","studio":"20th Century Fox","genres":"Action, Sci-Fi","directors":["James Cameron"],"writers":"James Cameron","actors":"Sigourney Weaver,Michael Biehn","length":137,"year":1986,"shortDescription":"This time it's war.","mpaRating":"R","criticsRating":8.4}`

func TestMovieHandler_CRUD(t *testing.T) {
	cat := &stubCatalog{movies: map[string]model.Movie{}}
	e := movieEcho(cat)

	rec := serve(e, http.MethodGet, "/api/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"msg":"Movie List Displayed Successfully","data":[]}`, rec.Body.String())

	rec = serve(e, http.MethodPost, "/api/add", aliens)
	require.Equal(t, http.StatusOK, rec.Code)
	added := decode(t, rec)
	assert.Equal(t, "Movie Added Successfully", added["msg"])
	data := added["data"].(map[string]any)
	assert.Equal(t, []any{"Action", "Sci-Fi"}, data["genres"])
	assert.Equal(t, []any{"Sigourney Weaver", "Michael Biehn"}, data["actors"])
	id := data["_id"].(string)

	rec = serve(e, http.MethodGet, "/api/find/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Movie Retrieved by ID Successfully", decode(t, rec)["msg"])

	rec = serve(e, http.MethodPut, "/api/update/"+id, strings.Replace(aliens, `"Aliens"`, `"Aliens (Special Edition)"`, 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Movie Updated Successfully", decode(t, rec)["msg"])

	rec = serve(e, http.MethodDelete, "/api/delete/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"msg":"Movie Deleted Successfully","data":"`+id+`"}`, rec.Body.String())

	rec = serve(e, http.MethodDelete, "/api/delete/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Movie ID Not Found", decode(t, rec)["msg"])
}

func TestMovieHandler_Failures(t *testing.T) {
	cat := &stubCatalog{movies: map[string]model.Movie{}}
	e := movieEcho(cat)

	rec := serve(e, http.MethodGet, "/api/find/xyz", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"msg":"ERROR: Movie ID not formatted correctly","data":null}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/api/find/"+xid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodPost, "/api/add", `{"title":"Untitled"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERROR: Movie Not Added. All Fields are required", decode(t, rec)["msg"])

	rec = serve(e, http.MethodPost, "/api/add", `{"genres":42}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERROR: Movie Not Added.", decode(t, rec)["msg"])

	rec = serve(e, http.MethodPut, "/api/update/"+xid.New().String(), aliens)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(e, http.MethodPut, "/api/update/"+xid.New().String(), `{"title":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERROR: Movie Not Updated. All Fields are required", decode(t, rec)["msg"])

	rec = serve(e, http.MethodDelete, "/api/delete/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cat.err = errors.New("db down")
	rec = serve(e, http.MethodGet, "/api/list", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"msg":"ERROR: Something Went Wrong","data":null}`, rec.Body.String())
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(quietLogger())
	e.GET("/boom", func(echo.Context) error { return errors.New("kaput") })

	rec := serve(e, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"msg":"Not Found","data":null}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"msg":"ERROR: Something Went Wrong","data":null}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	e := echo.New()
	e.GET("/ok", Health(map[string]Pinger{"mysql": up, "redis": up}))
	e.GET("/bad", Health(map[string]Pinger{"mysql": up, "redis": down}))

	rec := serve(e, http.MethodGet, "/ok", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(e, http.MethodGet, "/bad", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "redis unavailable", rec.Body.String())
}
