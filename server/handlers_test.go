package server

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/reward"
	"github.com/wordchain/wordreward/wallet"
)

func dummyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestMustHaveFormParams_NoParamsRequired(t *testing.T) {
	handler := mustHaveFormParams(dummyHandler())

	resp := httpResp(handler, "POST", nil)
	body, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("success", strings.TrimSpace(string(body)))
}

func TestMustHaveFormParams_SingleParamRequiredNotProvided(t *testing.T) {
	handler := mustHaveFormParams(dummyHandler(), "a")

	resp := httpResp(handler, "POST", nil)
	body, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Equal("missing form param: a", strings.TrimSpace(string(body)))
}

func TestMustHaveFormParams_SingleParamRequiredAndProvided(t *testing.T) {
	handler := mustHaveFormParams(dummyHandler(), "a")

	form := url.Values{
		"a": {"foo"},
	}
	resp := httpResp(handler, "POST", strings.NewReader(form.Encode()))
	body, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("success", strings.TrimSpace(string(body)))
}

func TestMustHaveFormParams_MultipleParamsRequiredOneNotProvided(t *testing.T) {
	handler := mustHaveFormParams(dummyHandler(), "a", "b")

	form := url.Values{
		"a": {"foo"},
	}
	resp := httpResp(handler, "POST", strings.NewReader(form.Encode()))
	body, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(http.StatusBadRequest, resp.StatusCode)
	assert.Equal("missing form param: b", strings.TrimSpace(string(body)))
}
func TestMustHaveFormParams_MultipleParamsRequiredAllProvided(t *testing.T) {
	handler := mustHaveFormParams(dummyHandler(), "a", "b")

	form := url.Values{
		"a": {"foo"},
		"b": {"foo"},
	}
	resp := httpResp(handler, "POST", strings.NewReader(form.Encode()))
	body, _ := io.ReadAll(resp.Body)

	assert := assert.New(t)
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal("success", strings.TrimSpace(string(body)))
}

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T, tc *testController) *apiClient {
	srv := httptest.NewServer(NewServer(tc.ctrl, tc.rewards, nil).Handler())
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv}
}

func (c *apiClient) do(method, path string, form url.Values) (int, string) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.srv.URL+path, body)
	require.Nil(c.t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := http.DefaultClient.Do(req)
	require.Nil(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.Nil(c.t, err)
	return resp.StatusCode, strings.TrimSpace(string(data))
}

func (c *apiClient) snapshot(method, path string, form url.Values) (int, game.Snapshot) {
	code, body := c.do(method, path, form)
	var snap game.Snapshot
	if code == http.StatusOK {
		require.Nil(c.t, json.Unmarshal([]byte(body), &snap))
	}
	return code, snap
}

func TestAPI_Game(t *testing.T) {
	assert := assert.New(t)

	api := newAPI(t, newTestController(t, wallet.NewStubProvider(player)))

	code, snap := api.snapshot("GET", "/api/game", nil)
	assert.Equal(http.StatusOK, code)
	assert.Equal(10, snap.GuessesLeft)
	assert.Equal("_ _ _ _ _ _ _ _ _ _", snap.Masked)

	code, body := api.do("POST", "/api/game/guess", url.Values{})
	assert.Equal(http.StatusBadRequest, code)
	assert.Equal("missing form param: letter", body)

	code, _ = api.snapshot("POST", "/api/game/guess", url.Values{"letter": {"7"}})
	assert.Equal(http.StatusBadRequest, code)

	code, snap = api.snapshot("POST", "/api/game/guess", url.Values{"letter": {"c"}})
	assert.Equal(http.StatusOK, code)
	assert.Equal("_ _ _ C _ C _ _ _ _", snap.Masked)

	code, body = api.do("POST", "/api/game/guess", url.Values{"letter": {"C"}})
	assert.Equal(http.StatusConflict, code)
	assert.Equal(game.ErrAlreadyGuessed.Error(), body)

	code, snap = api.snapshot("DELETE", "/api/game/guess/c", nil)
	assert.Equal(http.StatusOK, code)
	assert.Empty(snap.Guessed)

	code, _ = api.snapshot("DELETE", "/api/game/guess/c", nil)
	assert.Equal(http.StatusNotFound, code)

	id := snap.ID
	code, snap = api.snapshot("POST", "/api/game/reset", nil)
	assert.Equal(http.StatusOK, code)
	assert.NotEqual(id, snap.ID)
}

func TestAPI_Wallet(t *testing.T) {
	assert := assert.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	api := newAPI(t, tc)

	code, body := api.do("GET", "/api/wallet", nil)
	assert.Equal(http.StatusOK, code)
	assert.JSONEq(`{"connected":false}`, body)

	code, body = api.do("GET", "/api/balance", nil)
	assert.Equal(http.StatusConflict, code)
	assert.Equal("wallet not connected", body)

	code, body = api.do("POST", "/api/wallet/connect", nil)
	assert.Equal(http.StatusOK, code)
	assert.JSONEq(`{"connected":true,"address":"`+player.Hex()+`"}`, body)

	tc.ledger.On("BalanceOf", mock.Anything, player).Return(big.NewInt(1000000000000000000), nil)
	code, body = api.do("GET", "/api/balance", nil)
	assert.Equal(http.StatusOK, code)
	assert.JSONEq(`{"account":"`+player.Hex()+`","balance":"1000000000000000000","formatted":"1.0"}`, body)

	code, body = api.do("POST", "/api/wallet/disconnect", nil)
	assert.Equal(http.StatusOK, code)
	assert.JSONEq(`{"connected":false}`, body)
}

func TestAPI_ConnectWithoutProvider(t *testing.T) {
	api := newAPI(t, newTestController(t, nil))

	code, body := api.do("POST", "/api/wallet/connect", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "no wallet provider available", body)
}

func TestAPI_ConnectRejected(t *testing.T) {
	tc := newTestController(t, wallet.NewStubProvider(player))
	tc.provider.SetRequestErr(context.Canceled)
	api := newAPI(t, tc)

	code, _ := api.do("POST", "/api/wallet/connect", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAPI_Rewards(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tc := newTestController(t, wallet.NewStubProvider(player))
	require.Nil(tc.ctrl.Start())
	defer tc.ctrl.Stop()
	api := newAPI(t, tc)

	code, body := api.do("GET", "/api/rewards", nil)
	assert.Equal(http.StatusOK, code)
	assert.Equal("[]", body)

	code, _ = api.do("GET", "/api/rewards/unknown", nil)
	assert.Equal(http.StatusNotFound, code)
	code, _ = api.do("POST", "/api/rewards/unknown/reset", nil)
	assert.Equal(http.StatusNotFound, code)

	tc.expectPayout()
	code, _ = api.do("POST", "/api/wallet/connect", nil)
	require.Equal(http.StatusOK, code)
	gameID := solve(t, tc.ctrl)
	assert.Eventually(func() bool { return ticketStatus(tc.rewards, gameID) == reward.Confirmed }, time.Second, 5*time.Millisecond)

	code, body = api.do("GET", "/api/rewards/"+gameID, nil)
	assert.Equal(http.StatusOK, code)
	var ticket map[string]any
	require.Nil(json.Unmarshal([]byte(body), &ticket))
	assert.Equal("confirmed", ticket["status"])
	assert.Equal("1000000000000000000", ticket["amount"])

	code, _ = api.do("POST", "/api/rewards/"+gameID+"/reset", nil)
	assert.Equal(http.StatusConflict, code)
}

func httpResp(handler http.Handler, method string, body io.Reader) *http.Response {
	req := httptest.NewRequest(method, "http://example.com", body)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	return w.Result()
}
