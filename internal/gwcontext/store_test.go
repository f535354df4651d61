package gwcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/epc-sgw/internal/messages"
)

func sampleCreateRequest() *messages.CreateSessionRequest {
	return &messages.CreateSessionRequest{
		IMSI:    "001010000000001",
		RATType: messages.RATEUTRAN,
		APN:     "internet",
		PDNType: messages.PDNTypeIPv4,
		SenderFTEIDC: messages.FTEID{
			InterfaceType: messages.S11MMEGTPC,
			TEID:          0x11,
		},
		Trxn: 0xA,
		DefaultBearer: messages.BearerContextToBeCreated{
			EBI: 5,
			QoS: messages.QoS{QCI: 9},
		},
	}
}

func TestStore_InsertAndLookup(t *testing.T) {
	store := NewStore()
	req := sampleCreateRequest()
	ctx := NewSubscriberCtx(1, req)

	require.True(t, store.Insert(1, ctx, TunnelPair{LocalTEID: 1, RemoteTEID: 0x11}))

	got, ok := store.LookupContext(1)
	require.True(t, ok)
	assert.Equal(t, "001010000000001", got.IMSI)

	tunnel, ok := store.LookupTunnelPair(1)
	require.True(t, ok)
	assert.Equal(t, uint32(0x11), tunnel.RemoteTEID)
}

func TestStore_InsertRejectsDuplicateKey(t *testing.T) {
	store := NewStore()
	ctx := NewSubscriberCtx(1, sampleCreateRequest())
	require.True(t, store.Insert(1, ctx, TunnelPair{LocalTEID: 1}))
	assert.False(t, store.Insert(1, ctx, TunnelPair{LocalTEID: 1}))
}

func TestStore_RemoveDropsBothMappings(t *testing.T) {
	store := NewStore()
	ctx := NewSubscriberCtx(1, sampleCreateRequest())
	store.Insert(1, ctx, TunnelPair{LocalTEID: 1})

	removed, ok := store.Remove(1)
	require.True(t, ok)
	assert.Equal(t, ctx, removed)

	_, ok = store.LookupContext(1)
	assert.False(t, ok)
	_, ok = store.LookupTunnelPair(1)
	assert.False(t, ok)
}

func TestStore_StatsTracksLifecycle(t *testing.T) {
	store := NewStore()
	ctx := NewSubscriberCtx(1, sampleCreateRequest())
	store.Insert(1, ctx, TunnelPair{LocalTEID: 1})

	stats := store.Stats()
	assert.Equal(t, uint64(1), stats.TotalSessions)
	assert.Equal(t, uint64(1), stats.ActiveSessions)

	store.Remove(1)
	stats = store.Stats()
	assert.Equal(t, uint64(1), stats.TotalSessions)
	assert.Equal(t, uint64(0), stats.ActiveSessions)
	assert.Equal(t, uint64(1), stats.ReleasedSessions)
}

func TestBearerState_DerivedFromENodeBTEID(t *testing.T) {
	ctx := NewSubscriberCtx(1, sampleCreateRequest())
	bearer, ok := ctx.Bearer(5)
	require.True(t, ok)
	assert.Equal(t, BearerIdle, bearer.State())

	ctx.UpdateBearer(5, func(b *BearerEntry) { b.ENodeBS1uTEID = 0xE1 })
	bearer, _ = ctx.Bearer(5)
	assert.Equal(t, BearerActive, bearer.State())
}

func TestPdnConn_APNSentinelWhenAbsent(t *testing.T) {
	req := sampleCreateRequest()
	req.APN = ""
	ctx := NewSubscriberCtx(1, req)
	assert.Equal(t, NoAPN, ctx.APN())
}

func TestSubscriberCtx_SavedCreateRequestIsTheOriginal(t *testing.T) {
	req := sampleCreateRequest()
	ctx := NewSubscriberCtx(1, req)
	assert.Same(t, req, ctx.SavedCreateRequest)
}
