// Package dispatch is the message I/O shim: it hands off response/request
// messages to the S11 peer task and the IP-forwarding task. The engine
// never frames or transmits a message itself; it calls through this
// interface, which a real deployment backs with the per-task message bus.
package dispatch

import (
	"go.uber.org/zap"

	"github.com/your-org/epc-sgw/internal/messages"
)

// Sender is the outbound half of the shim: every message the engine emits
// downstream of a procedure handler passes through one of these methods.
type Sender interface {
	SendCreateSessionResponse(resp messages.CreateSessionResponse)
	SendModifyBearerResponse(resp messages.ModifyBearerResponse)
	SendDeleteSessionResponse(resp messages.DeleteSessionResponse)
	SendReleaseAccessBearersResponse(resp messages.ReleaseAccessBearersResponse)
	SendCreateBearerRequest(req messages.CreateBearerRequest)
	SendSGiUpdateEndPointRequest(req messages.SGiUpdateEndPointRequest)
}

// Recorder is a Sender that keeps every message it was asked to send, for
// tests that want to assert on what the engine emitted without standing up
// a real S11/IP-forwarding task.
type Recorder struct {
	CreateSessionResponses        []messages.CreateSessionResponse
	ModifyBearerResponses         []messages.ModifyBearerResponse
	DeleteSessionResponses        []messages.DeleteSessionResponse
	ReleaseAccessBearersResponses []messages.ReleaseAccessBearersResponse
	CreateBearerRequests          []messages.CreateBearerRequest
	SGiUpdateEndPointRequests     []messages.SGiUpdateEndPointRequest
}

// NewRecorder builds an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) SendCreateSessionResponse(resp messages.CreateSessionResponse) {
	r.CreateSessionResponses = append(r.CreateSessionResponses, resp)
}

func (r *Recorder) SendModifyBearerResponse(resp messages.ModifyBearerResponse) {
	r.ModifyBearerResponses = append(r.ModifyBearerResponses, resp)
}

func (r *Recorder) SendDeleteSessionResponse(resp messages.DeleteSessionResponse) {
	r.DeleteSessionResponses = append(r.DeleteSessionResponses, resp)
}

func (r *Recorder) SendReleaseAccessBearersResponse(resp messages.ReleaseAccessBearersResponse) {
	r.ReleaseAccessBearersResponses = append(r.ReleaseAccessBearersResponses, resp)
}

func (r *Recorder) SendCreateBearerRequest(req messages.CreateBearerRequest) {
	r.CreateBearerRequests = append(r.CreateBearerRequests, req)
}

func (r *Recorder) SendSGiUpdateEndPointRequest(req messages.SGiUpdateEndPointRequest) {
	r.SGiUpdateEndPointRequests = append(r.SGiUpdateEndPointRequests, req)
}

// LogSender is a Sender for deployments where the S11 peer task and the
// IP-forwarding task are not attached: each outbound message is logged at
// the point it would have been enqueued on the message bus. cmd/sgw wires
// this by default.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a LogSender over logger.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCreateSessionResponse(resp messages.CreateSessionResponse) {
	s.logger.Info("dispatch create session response",
		zap.Uint8("cause", uint8(resp.Cause)),
		zap.Uint32("header_teid", resp.HeaderTEID),
		zap.Uint32("trxn", resp.Trxn))
}

func (s *LogSender) SendModifyBearerResponse(resp messages.ModifyBearerResponse) {
	s.logger.Info("dispatch modify bearer response",
		zap.Uint8("cause", uint8(resp.Cause)),
		zap.Uint32("header_teid", resp.HeaderTEID),
		zap.Uint32("trxn", resp.Trxn))
}

func (s *LogSender) SendDeleteSessionResponse(resp messages.DeleteSessionResponse) {
	s.logger.Info("dispatch delete session response",
		zap.Uint8("cause", uint8(resp.Cause)),
		zap.Uint32("header_teid", resp.HeaderTEID),
		zap.Uint32("trxn", resp.Trxn))
}

func (s *LogSender) SendReleaseAccessBearersResponse(resp messages.ReleaseAccessBearersResponse) {
	s.logger.Info("dispatch release access bearers response",
		zap.Uint8("cause", uint8(resp.Cause)),
		zap.Uint32("header_teid", resp.HeaderTEID))
}

func (s *LogSender) SendCreateBearerRequest(req messages.CreateBearerRequest) {
	s.logger.Info("dispatch create bearer request",
		zap.Uint32("header_teid", req.HeaderTEID),
		zap.Uint8("linked_bearer_id", req.LinkedBearerID),
		zap.Uint32("s1u_sgw_teid", req.S1uSGWFTEID.TEID))
}

func (s *LogSender) SendSGiUpdateEndPointRequest(req messages.SGiUpdateEndPointRequest) {
	s.logger.Info("dispatch sgi update endpoint request",
		zap.Uint32("local_teid", req.LocalTEID),
		zap.Uint8("ebi", req.EBI))
}
