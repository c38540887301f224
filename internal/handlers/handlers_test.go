// internal/handlers/handlers_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r1olo/ase-project/internal/auth"
	"github.com/r1olo/ase-project/internal/catalogue"
	"github.com/r1olo/ase-project/internal/game"
	"github.com/r1olo/ase-project/internal/middleware"
	"github.com/r1olo/ase-project/internal/queue"
)

func TestMain(m *testing.M) {
	auth.Init()
	os.Exit(m.Run())
}

var deckA = []string{
	"abruzzo", "basilicata", "calabria", "campania", "emilia-romagna",
	"friuli-venezia-giulia", "lazio", "liguria", "lombardia", "marche",
}

var deckB = []string{
	"molise", "piemonte", "puglia", "sardegna", "sicilia",
	"toscana", "trentino-alto-adige", "umbria", "valle-d-aosta", "veneto",
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newTestServer wires the full route table the way cmd/server does, over the
// in-memory queue, the static catalogue and no database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := quietLogger()
	engine := game.NewEngine(catalogue.NewStaticDefault(), nil, logger)
	srv := NewServer(queue.NewMemory(), engine, nil, nil, logger)

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()
	mux.Handle("GET /health", HealthHandler())
	mux.Handle("POST /queue/join", logged(JoinQueueHandler(srv)))
	mux.Handle("DELETE /queue/leave", logged(LeaveQueueHandler(srv)))
	mux.Handle("GET /queue/status", logged(QueueStatusHandler(srv)))
	mux.Handle("POST /matches/create", logged(CreateMatchHandler(srv)))
	mux.Handle("POST /matches/{id}/deck", logged(SubmitDeckHandler(srv)))
	mux.Handle("POST /matches/{id}/rounds/{round_id}/move", logged(SubmitMoveHandler(srv)))
	mux.Handle("GET /matches/{id}", logged(GetMatchHandler(srv)))
	mux.Handle("GET /matches/{id}/round", logged(GetCurrentRoundHandler(srv)))
	mux.Handle("GET /matches/{id}/rounds/{round_id}", logged(GetRoundHandler(srv)))
	mux.Handle("GET /matches/{id}/history", logged(GetHistoryHandler(srv)))
	mux.Handle("GET /leaderboard", logged(LeaderboardHandler(srv)))
	mux.Handle("GET /players/me/history", logged(PlayerHistoryHandler(srv)))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func tokenFor(t *testing.T, playerID uuid.UUID) string {
	t.Helper()
	token, err := auth.CreateJWT(playerID.String())
	require.NoError(t, err)
	return token
}

// do issues a request with a bearer token and decodes the JSON body into out
// (out may be nil).
func do(t *testing.T, ts *httptest.Server, method, path, token string, body, out interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/queue/join", "", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/queue/join", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestQueueJoinPairAndStatus(t *testing.T) {
	ts := newTestServer(t)
	p1, p2 := uuid.New(), uuid.New()
	tok1, tok2 := tokenFor(t, p1), tokenFor(t, p2)

	var join map[string]interface{}
	resp := do(t, ts, http.MethodPost, "/queue/join", tok1, nil, &join)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "WAITING", join["status"])
	assert.NotEmpty(t, join["token"])

	// A second join from the same player conflicts.
	resp = do(t, ts, http.MethodPost, "/queue/join", tok1, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var status map[string]interface{}
	resp = do(t, ts, http.MethodGet, "/queue/status", tok1, nil, &status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WAITING", status["status"])

	// Player 2 joins and the pairing happens inline with the request.
	resp = do(t, ts, http.MethodPost, "/queue/join", tok2, nil, nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var st1, st2 map[string]interface{}
	do(t, ts, http.MethodGet, "/queue/status", tok1, nil, &st1)
	do(t, ts, http.MethodGet, "/queue/status", tok2, nil, &st2)
	assert.Equal(t, "MATCHED", st1["status"])
	assert.Equal(t, "MATCHED", st2["status"])
	require.NotEmpty(t, st1["match_id"])
	assert.Equal(t, st1["match_id"], st2["match_id"])

	// The match exists and names both players.
	var summary map[string]interface{}
	resp = do(t, ts, http.MethodGet, "/matches/"+st1["match_id"].(string), tok1, nil, &summary)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SETUP", summary["status"])
	assert.ElementsMatch(t,
		[]string{p1.String(), p2.String()},
		[]string{summary["player_a"].(string), summary["player_b"].(string)})

	// An unknown caller polls to UNKNOWN.
	var st3 map[string]interface{}
	do(t, ts, http.MethodGet, "/queue/status", tokenFor(t, uuid.New()), nil, &st3)
	assert.Equal(t, "UNKNOWN", st3["status"])
}

func TestQueueLeave(t *testing.T) {
	ts := newTestServer(t)
	tok := tokenFor(t, uuid.New())

	resp := do(t, ts, http.MethodDelete, "/queue/leave", tok, nil, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/queue/join", tok, nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/queue/leave", tok, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]interface{}
	do(t, ts, http.MethodGet, "/queue/status", tok, nil, &status)
	assert.Equal(t, "UNKNOWN", status["status"])
}

// pairUp drives two players through the queue and returns the match id plus
// the tokens keyed by side (player_a first).
func pairUp(t *testing.T, ts *httptest.Server) (matchID, tokA, tokB string) {
	t.Helper()
	p1, p2 := uuid.New(), uuid.New()
	tok1, tok2 := tokenFor(t, p1), tokenFor(t, p2)

	resp := do(t, ts, http.MethodPost, "/queue/join", tok1, nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/queue/join", tok2, nil, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var status map[string]interface{}
	do(t, ts, http.MethodGet, "/queue/status", tok1, nil, &status)
	require.Equal(t, "MATCHED", status["status"])
	matchID = status["match_id"].(string)

	var summary map[string]interface{}
	do(t, ts, http.MethodGet, "/matches/"+matchID, tok1, nil, &summary)
	if summary["player_a"].(string) == p1.String() {
		return matchID, tok1, tok2
	}
	return matchID, tok2, tok1
}

func TestDeckSubmissionOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	matchID, tokA, tokB := pairUp(t, ts)

	var summary map[string]interface{}
	resp := do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokA,
		map[string]interface{}{"cards": deckA}, &summary)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SETUP", summary["status"])

	// Undersized deck rejected.
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokB,
		map[string]interface{}{"cards": deckB[:5]}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Outsiders cannot register a deck.
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokenFor(t, uuid.New()),
		map[string]interface{}{"cards": deckB}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokB,
		map[string]interface{}{"cards": deckB}, &summary)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IN_PROGRESS", summary["status"])

	// Re-submission after start conflicts.
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokA,
		map[string]interface{}{"cards": deckA}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRoundPlayOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	matchID, tokA, tokB := pairUp(t, ts)

	resp := do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokA,
		map[string]interface{}{"cards": deckA}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/deck", tokB,
		map[string]interface{}{"cards": deckB}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var round map[string]interface{}
	resp = do(t, ts, http.MethodGet, "/matches/"+matchID+"/round", tokA, nil, &round)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), round["index"])
	roundID := round["id"].(string)

	// A card from the opponent's deck is a validation failure.
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/rounds/"+roundID+"/move", tokA,
		map[string]string{"card_id": "molise"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var outcome map[string]interface{}
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/rounds/"+roundID+"/move", tokA,
		map[string]string{"card_id": "abruzzo"}, &outcome)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "WAITING_FOR_OPPONENT", outcome["status"])

	// Repeating the move conflicts.
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/rounds/"+roundID+"/move", tokA,
		map[string]string{"card_id": "abruzzo"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The pending move is invisible to the opponent's poll.
	var pending map[string]interface{}
	do(t, ts, http.MethodGet, "/matches/"+matchID+"/rounds/"+roundID, tokB, nil, &pending)
	assert.Equal(t, false, pending["resolved"])
	assert.Equal(t, float64(1), pending["moves_submitted"])
	assert.NotContains(t, pending, "move_a")
	assert.NotContains(t, pending, "move_b")
	assert.NotContains(t, pending, "winner")

	// abruzzo beats molise in every category, so the winner is fixed even
	// though the round's category is drawn at random.
	resp = do(t, ts, http.MethodPost, "/matches/"+matchID+"/rounds/"+roundID+"/move", tokB,
		map[string]string{"card_id": "molise"}, &outcome)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ROUND_PROCESSED", outcome["status"])
	assert.Equal(t, float64(1), outcome["score_a"])
	assert.Equal(t, float64(0), outcome["score_b"])
	require.NotNil(t, outcome["next_round"])

	resolved := outcome["round"].(map[string]interface{})
	assert.Equal(t, "A", resolved["winner"])
	assert.Equal(t, "abruzzo", resolved["move_a"])
	assert.Equal(t, "molise", resolved["move_b"])

	var history map[string]interface{}
	resp = do(t, ts, http.MethodGet, "/matches/"+matchID+"/history", tokA, nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rounds := history["rounds"].([]interface{})
	require.Len(t, rounds, 2)
}

func TestMatchLookupFailures(t *testing.T) {
	ts := newTestServer(t)
	tok := tokenFor(t, uuid.New())

	resp := do(t, ts, http.MethodGet, "/matches/"+uuid.NewString(), tok, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/matches/not-a-uuid", tok, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateMatchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var summary map[string]interface{}
	resp := do(t, ts, http.MethodPost, "/matches/create", "",
		map[string]string{"player_a": uuid.NewString(), "player_b": uuid.NewString()}, &summary)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "SETUP", summary["status"])

	same := uuid.NewString()
	resp = do(t, ts, http.MethodPost, "/matches/create", "",
		map[string]string{"player_a": same, "player_b": same}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDurableEndpointsWithoutStore(t *testing.T) {
	ts := newTestServer(t)
	tok := tokenFor(t, uuid.New())

	resp := do(t, ts, http.MethodGet, "/players/me/history", tok, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/leaderboard", tok, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
