package adminserver

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/epc-sgw/internal/gwcontext"
	"github.com/your-org/epc-sgw/internal/messages"
)

func newStoreWithSession(t *testing.T) *gwcontext.Store {
	t.Helper()
	store := gwcontext.NewStore()
	req := &messages.CreateSessionRequest{
		IMSI:    "001010000000001",
		APN:     "internet",
		PDNType: messages.PDNTypeIPv4,
		SenderFTEIDC: messages.FTEID{
			InterfaceType: messages.S11MMEGTPC,
			TEID:          0x11,
		},
		DefaultBearer: messages.BearerContextToBeCreated{EBI: 5},
	}
	ctx := gwcontext.NewSubscriberCtx(1, req)
	require.True(t, store.Insert(1, ctx, gwcontext.TunnelPair{LocalTEID: 1, RemoteTEID: 0x11}))
	return store
}

func TestHandleHealth(t *testing.T) {
	s := New(":0", gwcontext.NewStore(), zap.NewNop())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, rec.Code)
}

func TestHandleListSessions(t *testing.T) {
	s := New(":0", newStoreWithSession(t), zap.NewNop())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/sessions", nil))
	require.Equal(t, 200, rec.Code)

	var views []sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "001010000000001", views[0].IMSI)
	assert.Equal(t, uint32(1), views[0].S11LocalTEID)
	require.Len(t, views[0].Bearers, 1)
	assert.Equal(t, "IDLE", views[0].Bearers[0].State)
}

func TestHandleGetSessionsByIMSI(t *testing.T) {
	s := New(":0", newStoreWithSession(t), zap.NewNop())

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/sessions/001010000000001", nil))
	assert.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/sessions/999999999999999", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandleStats(t *testing.T) {
	s := New(":0", newStoreWithSession(t), zap.NewNop())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/stats", nil))
	require.Equal(t, 200, rec.Code)

	var stats gwcontext.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, uint64(1), stats.ActiveSessions)
}
