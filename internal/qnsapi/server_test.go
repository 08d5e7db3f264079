// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package qnsapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/qns/internal/ane"
	"grimm.is/qns/internal/carrierconfig"
	"grimm.is/qns/internal/qnstypes"
	"grimm.is/qns/internal/restriction"
)

func newTestServer(t *testing.T) (*Server, EngineKey) {
	t.Helper()
	store := carrierconfig.NewStore(0, nil)
	mgr := restriction.NewManager(store)
	e := ane.NewANE(0, qnstypes.SessionIMS, store, mgr, nil)
	reg := NewRegistry()
	key := EngineKey{Slot: 0, Session: qnstypes.SessionIMS}
	reg.Register(key, e)
	return NewServer(ServerOptions{Registry: reg}), key
}

func TestListEngines(t *testing.T) {
	s, key := newTestServer(t)
	router := mux.NewRouter()
	s.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qns/engines", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var keys []EngineKey
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &keys))
	assert.Contains(t, keys, key)
}

func TestSnapshotUnknownEngine(t *testing.T) {
	s, _ := newTestServer(t)
	router := mux.NewRouter()
	s.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qns/9/XCAP", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshotKnownEngineNotYetPublished(t *testing.T) {
	s, key := newTestServer(t)
	router := mux.NewRouter()
	s.RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qns/0/IMS", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["published"])
	_ = key
}
