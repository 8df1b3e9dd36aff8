package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordchain/wordreward/game"
	"github.com/wordchain/wordreward/server"
)

type fakeNode struct {
	connected bool
	calls     []string
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.calls = append(n.calls, r.Method+" "+r.URL.Path)
	writeJSON := func(v any) {
		data, _ := json.Marshal(v)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}

	switch r.Method + " " + r.URL.Path {
	case "GET /api/wallet":
		if n.connected {
			writeJSON(server.WalletStatus{Connected: true, Address: "0x2Fc8d348712462442Ae49A5aD341Eb8bCBA2f44B"})
		} else {
			writeJSON(server.WalletStatus{})
		}
	case "GET /api/balance":
		if !n.connected {
			http.Error(w, "wallet not connected", http.StatusConflict)
			return
		}
		writeJSON(server.Balance{Account: "0x2Fc8d348712462442Ae49A5aD341Eb8bCBA2f44B", Balance: "1500000000000000000000"})
	case "GET /api/game":
		writeJSON(game.Snapshot{ID: "g1", Masked: "B _ _", GuessesLeft: 2, Guessed: []string{"B"}})
	case "POST /api/game/guess":
		r.ParseForm()
		if r.FormValue("letter") == "1" {
			http.Error(w, game.ErrInvalidLetter.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(game.Snapshot{ID: "g1", Masked: "B " + r.FormValue("letter") + " _", GuessesLeft: 1})
	case "GET /api/rewards":
		writeJSON([]map[string]any{{
			"gameID":    "g1",
			"recipient": "0x2Fc8d348712462442Ae49A5aD341Eb8bCBA2f44B",
			"amount":    "1000000000000000000",
			"status":    "failed",
			"error":     "insufficient bank reserve",
			"createdAt": "2024-01-01T00:00:00Z",
			"updatedAt": "2024-01-01T00:00:00Z",
		}})
	case "POST /api/rewards/g1/reset":
		w.WriteHeader(http.StatusAccepted)
	default:
		http.NotFound(w, r)
	}
}

func runCLI(t *testing.T, node *fakeNode, args ...string) (string, error) {
	srv := httptest.NewServer(node)
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.Nil(t, err)

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err = app.Run(append([]string{"wordreward-cli", "--host", u.Hostname(), "--http", u.Port()}, args...))
	return out.String(), err
}

func TestCLI_Status(t *testing.T) {
	assert := assert.New(t)

	out, err := runCLI(t, &fakeNode{}, "status")
	assert.Nil(err)
	assert.Contains(out, "not connected")
	assert.Contains(out, "B _ _")

	out, err = runCLI(t, &fakeNode{connected: true}, "status")
	assert.Nil(err)
	assert.Contains(out, "0x2Fc8d348712462442Ae49A5aD341Eb8bCBA2f44B")
	assert.Contains(out, "1,500.0")
}

func TestCLI_Balance(t *testing.T) {
	assert := assert.New(t)

	out, err := runCLI(t, &fakeNode{}, "balance")
	assert.Nil(err)
	assert.Contains(out, "no wallet connected")

	out, err = runCLI(t, &fakeNode{connected: true}, "balance")
	assert.Nil(err)
	assert.Contains(out, "1,500.0")
}

func TestCLI_Guess(t *testing.T) {
	assert := assert.New(t)

	out, err := runCLI(t, &fakeNode{}, "guess", "l")
	assert.Nil(err)
	assert.Contains(out, "B l _")

	_, err = runCLI(t, &fakeNode{}, "guess", "1")
	assert.EqualError(err, "Bad Request: "+game.ErrInvalidLetter.Error())

	_, err = runCLI(t, &fakeNode{}, "guess")
	assert.NotNil(err)
}

func TestCLI_TicketsAndRetry(t *testing.T) {
	assert := assert.New(t)

	node := &fakeNode{}
	out, err := runCLI(t, node, "tickets")
	assert.Nil(err)
	assert.Contains(out, "g1")
	assert.Contains(out, "0x2Fc...f44B")
	assert.Contains(out, "insufficient bank reserve")

	out, err = runCLI(t, node, "retry", "g1")
	assert.Nil(err)
	assert.Contains(out, "being paid again")
	assert.Equal([]string{"GET /api/rewards", "POST /api/rewards/g1/reset"}, node.calls)
}
