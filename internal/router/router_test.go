package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinereview/internal/config"
	"github.com/iliyamo/cinereview/internal/handler"
	"github.com/iliyamo/cinereview/internal/middleware"
	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/queue"
	"github.com/iliyamo/cinereview/internal/repository/memory"
	"github.com/iliyamo/cinereview/internal/router"
	"github.com/iliyamo/cinereview/internal/service"
	"github.com/iliyamo/cinereview/internal/utils"
)

const password = "Abc123!x"

type fakeImages struct {
	keys []string
}

func (f *fakeImages) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	f.keys = append(f.keys, key)
	_, _ = io.Copy(io.Discard, r)
	return "https://cdn.test/" + key, nil
}

type app struct {
	e      *echo.Echo
	store  *memory.Store
	images *fakeImages
}

func newApp(t *testing.T) *app {
	t.Helper()
	st := memory.New()
	log, _ := test.NewNullLogger()
	images := &fakeImages{}
	e := router.New(router.Deps{
		Config: config.Config{
			CORSOrigins: []string{"*"},
			BcryptCost:  4,
			Store:       config.StoreConfig{Timeout: 5 * time.Second},
		},
		Log:         log,
		Stores:      service.Stores{Users: st.Users(), Movies: st.Movies(), Reviews: st.Reviews(), Tx: st},
		Revocations: memory.NewRevocations(),
		Tokens:      utils.NewTokenIssuer("router-test"),
		Events:      queue.NopPublisher{},
		Images:      images,
	})
	return &app{e: e, store: st, images: images}
}

func (a *app) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *app) signup(t *testing.T, name string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/user/signup", "", echo.Map{
		"email": name + "@example.com", "username": name, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return a.login(t, name)
}

func (a *app) login(t *testing.T, name string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/user/login", "", echo.Map{"username": name, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok, _ := decode(t, rec)["jwtToken"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func (a *app) admin(t *testing.T) string {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	require.NoError(t, a.store.Users().Create(context.Background(), &model.User{
		Username: "rooty", Email: "root@example.com", PasswordHash: hash, IsAdmin: true,
	}))
	return a.login(t, "rooty")
}

func (a *app) createMovie(t *testing.T, adminToken, title string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/movie", adminToken, echo.Map{
		"title": title, "description": "a film", "releaseYear": 1979,
		"posterImg": "https://img.test/p.jpg", "genre": []string{"horror"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Movie added successfully", body["message"])
	return body["movie"].(map[string]interface{})["_id"].(string)
}

func (a *app) createReview(t *testing.T, token, movieID string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/review/"+movieID, token, echo.Map{"title": "Great", "review": "Loved it", "rating": 9})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["createdReview"].(map[string]interface{})["_id"].(string)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode(t, rec)["message"])
}

func TestSignupLoginVerify(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/user/signup", "", echo.Map{"email": "ann@example.com", "username": "annie", "password": password})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	body := decode(t, rec)
	assert.Equal(t, "User created successfully", body["message"])
	assert.Equal(t, "annie", body["createdUser"].(map[string]interface{})["username"])

	rec = a.do(t, http.MethodPost, "/user/signup", "", echo.Map{"email": "ann@example.com", "username": "other", "password": password})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, handler.MsgTaken, decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/user/signup", "", echo.Map{"email": "nope", "username": "bobby", "password": password})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.MsgInvalidEmail, decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/user/signup", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.MsgInvalidBody, decode(t, rec)["message"])

	for _, creds := range []echo.Map{
		{"email": "ann@example.com", "password": "Wrong123!"},
		{"username": "ghost", "password": password},
	} {
		rec = a.do(t, http.MethodPost, "/user/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, handler.MsgBadCredentials, decode(t, rec)["message"])
	}

	rec = a.do(t, http.MethodPost, "/user/login", "", echo.Map{"email": "ann@example.com", "password": password})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	tok := login["jwtToken"].(string)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.do(t, http.MethodGet, "/user/verify", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "User is logged in.", body["message"])
	assert.Equal(t, login["user"].(map[string]interface{})["_id"], body["user"].(map[string]interface{})["_id"])

	rec = a.do(t, http.MethodGet, "/user/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, middleware.MsgNoHeader, decode(t, rec)["message"])
}

func TestAdminGate(t *testing.T) {
	a := newApp(t)
	user := a.signup(t, "annie")
	root := a.admin(t)

	rec := a.do(t, http.MethodGet, "/user/admin", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, middleware.MsgNotAdmin, decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/movie", user, echo.Map{"title": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `[]`, a.do(t, http.MethodGet, "/movie/all", "", nil).Body.String())

	rec = a.do(t, http.MethodGet, "/user/admin", root, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Admin is logged in and verified.", decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/movie", root, echo.Map{"title": "Alien"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "description is required", decode(t, rec)["message"])
}

func TestWatchlistAndFavorites(t *testing.T) {
	a := newApp(t)
	user := a.signup(t, "annie")
	movie := a.createMovie(t, a.admin(t), "Alien")

	rec := a.do(t, http.MethodPost, "/user/watchlist/"+movie, user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Movie added to watchlist", body["message"])
	assert.Equal(t, []interface{}{movie}, body["watchlist"])

	rec = a.do(t, http.MethodPost, "/user/watchlist/"+movie, user, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Movie already in watchlist", decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/user/favorites/000000000000000000000000", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handler.MsgMovieNotFound, decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/user/favorites/not-an-id", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, handler.MsgInvalidID, decode(t, rec)["message"])

	for i := 0; i < 2; i++ {
		rec = a.do(t, http.MethodDelete, "/user/watchlist/"+movie, user, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{}, decode(t, rec)["watchlist"])
	}
	rec = a.do(t, http.MethodDelete, "/user/favorites/"+movie, user, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Movie removed from favorites", decode(t, rec)["message"])

	rec = a.do(t, http.MethodPost, "/user/watchlist/"+movie, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestReviewLifecycleAndMovieCascade(t *testing.T) {
	a := newApp(t)
	root := a.admin(t)
	ann := a.signup(t, "annie")
	movie := a.createMovie(t, root, "Alien")
	review := a.createReview(t, ann, movie)

	rec := a.do(t, http.MethodGet, "/movie/"+movie, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reviews := decode(t, rec)["reviews"].([]interface{})
	require.Len(t, reviews, 1)
	first := reviews[0].(map[string]interface{})
	assert.Equal(t, review, first["_id"])
	assert.Equal(t, "annie", first["creator"].(map[string]interface{})["username"])

	rec = a.do(t, http.MethodPost, "/user/watchlist/"+movie, ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodDelete, "/movie/"+movie, root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alien movie was deleted successfully", decode(t, rec)["message"])

	rec = a.do(t, http.MethodGet, "/movie/"+movie, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, handler.MsgMovieNotFound, decode(t, rec)["message"])

	for _, tok := range []string{ann, root} {
		rec = a.do(t, http.MethodGet, "/user/profile", tok, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		p := decode(t, rec)
		assert.Equal(t, []interface{}{}, p["reviews"])
		assert.Equal(t, []interface{}{}, p["watchlist"])
	}
	assert.Equal(t, 0, a.store.Reviews().Count())

	rec = a.do(t, http.MethodDelete, "/review/"+review, ann, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewPermissions(t *testing.T) {
	a := newApp(t)
	root := a.admin(t)
	ann := a.signup(t, "annie")
	bob := a.signup(t, "bobby")
	movie := a.createMovie(t, root, "Alien")
	review := a.createReview(t, ann, movie)

	rec := a.do(t, http.MethodDelete, "/review/"+review, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You cannot delete another user's review", decode(t, rec)["message"])
	assert.Equal(t, 1, a.store.Reviews().Count())

	rec = a.do(t, http.MethodPut, "/review/"+review, bob, echo.Map{"title": "mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPut, "/review/"+review, ann, echo.Map{"title": "", "review": "Still great", "rating": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)["updated"].(map[string]interface{})
	assert.Equal(t, "Great", updated["title"])
	assert.Equal(t, "Still great", updated["review"])
	assert.Equal(t, 9.0, updated["rating"])

	rec = a.do(t, http.MethodPut, "/review/"+review, ann, echo.Map{"title": "   ", "review": " \t "})
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decode(t, rec)["updated"].(map[string]interface{})
	assert.Equal(t, "Great", updated["title"])
	assert.Equal(t, "Still great", updated["review"])

	rec = a.do(t, http.MethodPost, "/review/"+movie, bob, echo.Map{"title": "t", "review": "r", "rating": 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "rating must be at most 10", decode(t, rec)["message"])

	rec = a.do(t, http.MethodDelete, "/review/"+review, root, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Your review has been deleted successfully", decode(t, rec)["message"])
	assert.Equal(t, 0, a.store.Reviews().Count())
}

func TestMovieReadsAndPartialUpdate(t *testing.T) {
	a := newApp(t)
	root := a.admin(t)
	alien := a.createMovie(t, root, "Alien")
	a.createMovie(t, root, "Heat")

	rec := a.do(t, http.MethodGet, "/movie/all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = a.do(t, http.MethodGet, "/movie/search?query=ALI", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var found []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "Alien", found[0]["title"])

	rec = a.do(t, http.MethodPut, "/movie/"+alien, root, echo.Map{
		"title": "   ", "releaseYear": 0, "description": "new text", "genre": []string{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode(t, rec)["updated"].(map[string]interface{})
	assert.Equal(t, "Alien", updated["title"])
	assert.Equal(t, 1979.0, updated["releaseYear"])
	assert.Equal(t, "new text", updated["description"])
	assert.Equal(t, []interface{}{}, updated["genre"])

	rec = a.do(t, http.MethodGet, "/movie/zzz", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newApp(t)
	tok := a.signup(t, "annie")

	rec := a.do(t, http.MethodPost, "/user/logout", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/user/verify", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, middleware.MsgRevoked, decode(t, rec)["message"])

	// a fresh login still works
	rec = a.do(t, http.MethodGet, "/user/verify", a.login(t, "annie"), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func upload(t *testing.T, a *app, token, movieID, kind string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("kind", kind))
	part, err := w.CreateFormFile("image", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/movie/"+movieID+"/image", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	a := newApp(t)
	root := a.admin(t)
	movie := a.createMovie(t, root, "Alien")
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	rec := upload(t, a, root, movie, "backdrop", png)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode(t, rec)["movie"].(map[string]interface{})
	require.Len(t, a.images.keys, 1)
	assert.Equal(t, "https://cdn.test/"+a.images.keys[0], m["backdropImg"])
	assert.Equal(t, "https://img.test/p.jpg", m["posterImg"])

	rec = upload(t, a, root, movie, "poster", []byte("just some text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = upload(t, a, root, movie, "thumbnail", png)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, a, root, "000000000000000000000000", "poster", png)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, a.images.keys, 1)
}

func TestUploadImageBodyLimit(t *testing.T) {
	a := newApp(t)
	root := a.admin(t)
	movie := a.createMovie(t, root, "Alien")
	huge := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 7<<20)...)

	rec := upload(t, a, root, movie, "poster", huge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, http.StatusText(http.StatusRequestEntityTooLarge), decode(t, rec)["message"])
	assert.Empty(t, a.images.keys)

	// under the transport cap but over the image cap
	big := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 5<<20+1)...)
	rec = upload(t, a, root, movie, "poster", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, a.images.keys)
}
