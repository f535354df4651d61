// Package engine is the S11 procedure state machine: the request handlers
// and callback handlers that create, modify, delete and release PDN
// sessions and bearers. It is the one package every other internal package
// exists to serve.
package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/your-org/epc-sgw/internal/dispatch"
	"github.com/your-org/epc-sgw/internal/gwcontext"
	"github.com/your-org/epc-sgw/internal/kernel"
	"github.com/your-org/epc-sgw/internal/messages"
	"github.com/your-org/epc-sgw/internal/paa"
	"github.com/your-org/epc-sgw/internal/pco"
	"github.com/your-org/epc-sgw/internal/teid"
)

var tracer = otel.Tracer("internal/engine")

// MetricsSink receives procedure outcomes. internal/metrics.Recorder
// satisfies this; engine.New also accepts nil.
type MetricsSink interface {
	SessionCreated(cause messages.Cause)
	SessionDeleted()
	BearerModified(cause messages.Cause)
	KernelError()
}

// AuditSink receives one event per session lifecycle transition.
// internal/audit.Recorder satisfies this; engine.New also accepts nil.
type AuditSink interface {
	RecordEvent(imsi string, localTEID uint32, kind string)
}

// Engine holds every collaborator the state machine drives: the context
// store, the TEID allocators, the PAA coordinator, the PCO processor, the
// kernel-tunnel mediator, and the message I/O shim. Its methods are the
// S11 procedure handlers and their collaborator callbacks.
type Engine struct {
	cfg    Config
	store  *gwcontext.Store
	teids  *teid.Pair
	paa    *paa.Coordinator
	pco    pco.Processor
	kernel kernel.TunnelProgrammer
	sender dispatch.Sender
	logger *zap.Logger

	metrics MetricsSink
	audit   AuditSink
}

// New wires an Engine from its collaborators. metrics and audit may be nil.
func New(
	cfg Config,
	store *gwcontext.Store,
	teids *teid.Pair,
	paaCoord *paa.Coordinator,
	pcoProc pco.Processor,
	tunnelProgrammer kernel.TunnelProgrammer,
	sender dispatch.Sender,
	logger *zap.Logger,
	metrics MetricsSink,
	audit AuditSink,
) *Engine {
	return &Engine{
		cfg:     cfg,
		store:   store,
		teids:   teids,
		paa:     paaCoord,
		pco:     pcoProc,
		kernel:  tunnelProgrammer,
		sender:  sender,
		logger:  logger,
		metrics: metrics,
		audit:   audit,
	}
}

func (e *Engine) recordMetric(fn func()) {
	if e.metrics != nil {
		fn()
	}
}

func (e *Engine) recordAudit(imsi string, localTEID uint32, kind string) {
	if e.audit != nil {
		e.audit.RecordEvent(imsi, localTEID, kind)
	}
}

func (e *Engine) headerFor(ctx *gwcontext.SubscriberCtx, cause messages.Cause) messages.ResponseHeader {
	return messages.ResponseHeader{
		Cause:      cause,
		HeaderTEID: ctx.S11MMETEID,
		Trxn:       ctx.Trxn,
		MMEAddr:    ctx.MMES11Address,
	}
}

// HandleCreateSessionRequest processes an S11 Create Session Request
// (TS 29.274 §7.2.1): it allocates the local S11 TEID, installs the
// subscriber context with its default bearer, and drives the GTP-U
// create-tunnel leg. The GTP-U callback is synthesized inline so the whole
// session-open flow completes in one call.
func (e *Engine) HandleCreateSessionRequest(ctx context.Context, req *messages.CreateSessionRequest) (messages.CreateSessionResponse, error) {
	_, span := tracer.Start(ctx, "Engine.HandleCreateSessionRequest")
	defer span.End()

	if req.RATType != messages.RATEUTRAN {
		e.logger.Warn("create session request for non-EUTRAN RAT", zap.Uint8("rat_type", uint8(req.RATType)))
	}

	if req.SenderFTEIDC.TEID == 0 && req.SenderFTEIDC.InterfaceType != messages.S11MMEGTPC {
		return messages.CreateSessionResponse{}, fmt.Errorf("%w: sender F-TEID invalid and interface type mismatched", ErrMalformedRequest)
	}

	localTEID := e.teids.S11.Allocate()
	tunnel := gwcontext.TunnelPair{LocalTEID: localTEID, RemoteTEID: req.SenderFTEIDC.TEID}
	subCtx := gwcontext.NewSubscriberCtx(localTEID, req)

	if !e.store.Insert(localTEID, subCtx, tunnel) {
		return messages.CreateSessionResponse{}, fmt.Errorf("%w: duplicate local TEID %d", ErrMalformedRequest, localTEID)
	}

	e.logger.Info("session opened",
		zap.String("imsi", req.IMSI),
		zap.Uint32("local_teid", localTEID),
		zap.String("apn", subCtx.APN()))

	newS1uTEID := e.teids.S1U.Allocate()
	resp := e.OnGTPUCreateTunnelResponse(ctx, messages.GTPUCreateTunnelResponse{
		LocalTEID:     localTEID,
		Status:        messages.StatusOK,
		NewS1uSGWTEID: newS1uTEID,
	})
	return resp, nil
}

// OnGTPUCreateTunnelResponse runs once the S1-U endpoint for a new session
// is ready: it records the S-GW S1-U TEID on the default bearer, negotiates
// PCO, allocates the PDN address, and hands off to the SGi create-endpoint
// completion.
func (e *Engine) OnGTPUCreateTunnelResponse(ctx context.Context, resp messages.GTPUCreateTunnelResponse) messages.CreateSessionResponse {
	_, span := tracer.Start(ctx, "Engine.OnGTPUCreateTunnelResponse")
	defer span.End()

	subCtx, ok := e.store.LookupContext(resp.LocalTEID)
	if !ok {
		response := messages.CreateSessionResponse{ResponseHeader: messages.ResponseHeader{Cause: messages.CauseContextNotFound}}
		e.sender.SendCreateSessionResponse(response)
		return response
	}

	defaultEBI := subCtx.DefaultBearerID()
	subCtx.UpdateBearer(defaultEBI, func(b *gwcontext.BearerEntry) {
		b.SGWS1uTEID = resp.NewS1uSGWTEID
	})

	respPCO, addressAllocViaNAS, err := e.pco.Process(subCtx.SavedCreateRequest.PCO)
	if err != nil {
		e.logger.Error("pco negotiation failed", zap.Error(err))
	}
	subCtx.SetNegotiatedPCO(respPCO)

	status := messages.StatusOK
	allocated, err := e.paa.Allocate(subCtx.SavedCreateRequest.PDNType, addressAllocViaNAS)
	if err != nil {
		e.logger.Error("paa allocation failed", zap.Error(fmt.Errorf("%w: %v", ErrResourceExhausted, err)))
		status = messages.StatusFailed
	}
	subCtx.UpdateBearer(defaultEBI, func(b *gwcontext.BearerEntry) {
		b.PAA = allocated
	})

	return e.OnSGiCreateEndPointResponse(ctx, messages.SGiCreateEndPointResponse{
		LocalTEID: resp.LocalTEID,
		Status:    status,
	})
}

// OnSGiCreateEndPointResponse composes and emits the S11 Create Session
// Response. A failed SGi status maps to an APN-not-allowed cause; the
// session stays installed either way until the MME deletes it.
func (e *Engine) OnSGiCreateEndPointResponse(ctx context.Context, resp messages.SGiCreateEndPointResponse) messages.CreateSessionResponse {
	_, span := tracer.Start(ctx, "Engine.OnSGiCreateEndPointResponse")
	defer span.End()

	subCtx, ok := e.store.LookupContext(resp.LocalTEID)
	if !ok {
		response := messages.CreateSessionResponse{ResponseHeader: messages.ResponseHeader{Cause: messages.CauseContextNotFound}}
		e.sender.SendCreateSessionResponse(response)
		return response
	}

	var response messages.CreateSessionResponse
	if resp.Status == messages.StatusOK {
		defaultEBI := subCtx.DefaultBearerID()
		bearer, _ := subCtx.Bearer(defaultEBI)
		response.Bearers = []messages.BearerContextCreated{{
			EBI:   defaultEBI,
			Cause: messages.CauseRequestAccepted,
			S1uSGWFTEID: messages.FTEID{
				InterfaceType: messages.S1USGWGTPU,
				TEID:          bearer.SGWS1uTEID,
				IPv4:          e.cfg.S1UAddress,
				IPv4Present:   true,
			},
			PAA: bearer.PAA,
		}}
		response.PAA = bearer.PAA
		response.PCO = subCtx.TakeNegotiatedPCO()
		response.AMBR = e.cfg.DefaultAMBR
		response.ResponseHeader = e.headerFor(subCtx, messages.CauseRequestAccepted)
		e.recordMetric(func() { e.metrics.SessionCreated(messages.CauseRequestAccepted) })
		e.recordAudit(subCtx.IMSI, subCtx.S11LocalTEID, "session_opened")
	} else {
		response.ResponseHeader = e.headerFor(subCtx, messages.CauseMobilityAPNNotAllowed)
		e.recordMetric(func() { e.metrics.SessionCreated(messages.CauseMobilityAPNNotAllowed) })
	}

	response.S11SGWTEID = messages.FTEID{
		InterfaceType: messages.S11S4SGWGTPC,
		TEID:          subCtx.S11LocalTEID,
		IPv4:          e.cfg.S11Address,
		IPv4Present:   true,
	}

	e.sender.SendCreateSessionResponse(response)
	return response
}

// HandleModifyBearerRequest processes an S11 Modify Bearer Request
// (TS 29.274 §7.2.7): it records the eNB-side F-TEID on the bearer, drives
// the SGi update leg, and on success kicks off dedicated-bearer creation.
func (e *Engine) HandleModifyBearerRequest(ctx context.Context, req *messages.ModifyBearerRequest) messages.ModifyBearerResponse {
	_, span := tracer.Start(ctx, "Engine.HandleModifyBearerRequest")
	defer span.End()

	subCtx, ok := e.store.LookupContext(req.TEID)
	if !ok {
		response := messages.ModifyBearerResponse{
			ResponseHeader:          messages.ResponseHeader{Cause: messages.CauseContextNotFound},
			BearersMarkedForRemoval: []uint8{req.Bearer.EBI},
		}
		e.sender.SendModifyBearerResponse(response)
		return response
	}

	subCtx.SetDefaultBearerAndTrxn(req.Bearer.EBI, req.Trxn)

	if _, ok := subCtx.Bearer(req.Bearer.EBI); !ok {
		response := messages.ModifyBearerResponse{
			ResponseHeader:          e.headerFor(subCtx, messages.CauseContextNotFound),
			BearersMarkedForRemoval: []uint8{req.Bearer.EBI},
		}
		e.sender.SendModifyBearerResponse(response)
		return response
	}

	subCtx.UpdateBearer(req.Bearer.EBI, func(b *gwcontext.BearerEntry) {
		b.ENodeBS1uAddress = req.Bearer.S1ENodeBFTEID.IPv4
		b.ENodeBS1uTEID = req.Bearer.S1ENodeBFTEID.TEID
	})

	response := e.OnSGiUpdateEndPointResponse(ctx, messages.SGiUpdateEndPointResponse{
		LocalTEID: req.TEID,
		Status:    messages.StatusOK,
	})
	if response.Cause == messages.CauseRequestAccepted {
		e.recordAudit(subCtx.IMSI, subCtx.S11LocalTEID, "bearer_modified")
		e.SGWNoPCEFCreateDedicatedBearer(ctx, req.TEID)
	}
	return response
}

// OnSGiUpdateEndPointResponse completes a bearer modification: it emits
// the Modify Bearer Response and installs the kernel GTP-U forwarding
// entry for the now-ACTIVE bearer. A kernel failure is logged and does not
// change the S11 cause.
func (e *Engine) OnSGiUpdateEndPointResponse(ctx context.Context, resp messages.SGiUpdateEndPointResponse) messages.ModifyBearerResponse {
	_, span := tracer.Start(ctx, "Engine.OnSGiUpdateEndPointResponse")
	defer span.End()

	subCtx, ctxOK := e.store.LookupContext(resp.LocalTEID)
	_, tunnelOK := e.store.LookupTunnelPair(resp.LocalTEID)
	if !tunnelOK || !ctxOK {
		// An absent context is answered as a tunnel-pair-only reply with
		// trxn=0; the context pointer is never dereferenced here.
		response := messages.ModifyBearerResponse{ResponseHeader: messages.ResponseHeader{Cause: messages.CauseContextNotFound}}
		e.sender.SendModifyBearerResponse(response)
		return response
	}

	ebi := subCtx.DefaultBearerID()
	bearer, ok := subCtx.Bearer(ebi)
	if !ok {
		response := messages.ModifyBearerResponse{
			ResponseHeader:          e.headerFor(subCtx, messages.CauseContextNotFound),
			BearersMarkedForRemoval: []uint8{ebi},
		}
		e.sender.SendModifyBearerResponse(response)
		return response
	}

	response := messages.ModifyBearerResponse{ResponseHeader: e.headerFor(subCtx, messages.CauseRequestAccepted)}
	if err := e.kernel.Add(ctx, bearer.SGWS1uTEID, bearer.ENodeBS1uTEID, bearer.PAA.IPv4, bearer.ENodeBS1uAddress); err != nil {
		e.logger.Error("kernel tunnel add failed", zap.Error(fmt.Errorf("%w: %v", ErrKernelProgramming, err)))
		e.recordMetric(func() { e.metrics.KernelError() })
	}
	e.recordMetric(func() { e.metrics.BearerModified(messages.CauseRequestAccepted) })
	e.sender.SendModifyBearerResponse(response)
	return response
}

// SGWNoPCEFCreateDedicatedBearer emits an S11 Create Bearer Request with
// fixed TFT and QoS, standing in for the PCC-driven trigger a PCRF would
// provide. A fresh S-GW S1-U TEID is allocated for the new endpoint, but no
// bearer entry is inserted locally: the follow-up Modify Bearer Request
// populates the eNB side. No-op if the context is gone.
func (e *Engine) SGWNoPCEFCreateDedicatedBearer(ctx context.Context, localTEID uint32) {
	_, span := tracer.Start(ctx, "Engine.SGWNoPCEFCreateDedicatedBearer")
	defer span.End()

	subCtx, ok := e.store.LookupContext(localTEID)
	if !ok {
		return
	}

	newS1uTEID := e.teids.S1U.Allocate()
	request := messages.CreateBearerRequest{
		HeaderTEID:     subCtx.S11MMETEID,
		LinkedBearerID: subCtx.DefaultBearerID(),
		TFT:            e.cfg.DedicatedBearerTFT,
		QoS:            e.cfg.DedicatedBearerQoS,
		S1uSGWFTEID: messages.FTEID{
			InterfaceType: messages.S1USGWGTPU,
			TEID:          newS1uTEID,
			IPv4:          e.cfg.S1UAddress,
			IPv4Present:   true,
		},
		MMEAddr: subCtx.MMES11Address,
	}
	e.sender.SendCreateBearerRequest(request)
}

// HandleDeleteSessionRequest processes an S11 Delete Session Request
// (TS 29.274 §7.2.9): after the peer check it tears down the linked
// bearer's kernel tunnel, removes the session from the store, and releases
// its PDN address lease.
func (e *Engine) HandleDeleteSessionRequest(ctx context.Context, req *messages.DeleteSessionRequest) messages.DeleteSessionResponse {
	_, span := tracer.Start(ctx, "Engine.HandleDeleteSessionRequest")
	defer span.End()

	subCtx, ok := e.store.LookupContext(req.TEID)
	if !ok {
		var teid uint32
		if req.SenderFTEIDCP != nil {
			teid = req.SenderFTEIDCP.TEID
		}
		response := messages.DeleteSessionResponse{ResponseHeader: messages.ResponseHeader{Cause: messages.CauseContextNotFound, HeaderTEID: teid}}
		e.sender.SendDeleteSessionResponse(response)
		return response
	}

	fteidPresent := req.SenderFTEIDCP != nil && req.SenderFTEIDCP.IPv4Present && req.SenderFTEIDCP.IPv6Present
	if fteidPresent && req.SenderFTEIDCP.TEID != subCtx.S11MMETEID {
		response := messages.DeleteSessionResponse{ResponseHeader: messages.ResponseHeader{
			Cause:      messages.CauseInvalidPeer,
			HeaderTEID: subCtx.S11MMETEID,
			Trxn:       req.Trxn,
			MMEAddr:    subCtx.MMES11Address,
		}}
		e.sender.SendDeleteSessionResponse(response)
		return response
	}

	response := messages.DeleteSessionResponse{ResponseHeader: messages.ResponseHeader{
		Cause:      messages.CauseRequestAccepted,
		HeaderTEID: subCtx.S11MMETEID,
		Trxn:       req.Trxn,
		MMEAddr:    subCtx.MMES11Address,
	}}

	if bearer, ok := subCtx.Bearer(req.LBI); ok {
		e.OnSGiDeleteEndPointRequest(ctx, messages.SGiDeleteEndPointRequest{
			LocalTEID:     req.TEID,
			SGWS1uTEID:    bearer.SGWS1uTEID,
			ENodeBS1uTEID: bearer.ENodeBS1uTEID,
			PDNType:       subCtx.SavedCreateRequest.PDNType,
			PAA:           bearer.PAA,
		})
	}

	removed, _ := e.store.Remove(req.TEID)
	if removed != nil {
		for _, b := range removed.AllBearers() {
			if !b.PAA.IsZero() {
				e.paa.Free(b.PAA)
			}
		}
		e.recordAudit(removed.IMSI, removed.S11LocalTEID, "session_closed")
	}
	e.recordMetric(func() { e.metrics.SessionDeleted() })

	e.sender.SendDeleteSessionResponse(response)
	return response
}

// OnSGiDeleteEndPointRequest removes the kernel forwarding entry for a
// bearer being torn down. It never emits an S11 response; the delete
// handler composes that.
func (e *Engine) OnSGiDeleteEndPointRequest(ctx context.Context, req messages.SGiDeleteEndPointRequest) {
	_, span := tracer.Start(ctx, "Engine.OnSGiDeleteEndPointRequest")
	defer span.End()

	if err := e.kernel.Remove(ctx, req.SGWS1uTEID, req.ENodeBS1uTEID); err != nil {
		e.logger.Error("kernel tunnel remove failed", zap.Error(fmt.Errorf("%w: %v", ErrKernelProgramming, err)))
		e.recordMetric(func() { e.metrics.KernelError() })
	}
}

// HandleReleaseAccessBearersRequest processes an S11 Release Access
// Bearers Request (TS 29.274 §7.2.21): every bearer's eNB side is zeroed
// while the S-GW side stays intact, per the S1 release procedure of
// TS 23.401 §5.3.5.
func (e *Engine) HandleReleaseAccessBearersRequest(ctx context.Context, req *messages.ReleaseAccessBearersRequest) messages.ReleaseAccessBearersResponse {
	_, span := tracer.Start(ctx, "Engine.HandleReleaseAccessBearersRequest")
	defer span.End()

	subCtx, ok := e.store.LookupContext(req.TEID)
	if !ok {
		response := messages.ReleaseAccessBearersResponse{ResponseHeader: messages.ResponseHeader{Cause: messages.CauseContextNotFound}}
		e.sender.SendReleaseAccessBearersResponse(response)
		return response
	}

	subCtx.ResetReleasedBearers()
	response := messages.ReleaseAccessBearersResponse{ResponseHeader: e.headerFor(subCtx, messages.CauseRequestAccepted)}
	e.sender.SendReleaseAccessBearersResponse(response)
	return response
}

// OnGTPUUpdateTunnelResponse runs after the GTP-U task has updated an
// S1-U endpoint. The bool result reports whether a response was composed
// now (context or bearer absent) or the request was forwarded to the
// IP-forwarding collaborator for completion later.
func (e *Engine) OnGTPUUpdateTunnelResponse(ctx context.Context, resp messages.GTPUUpdateTunnelResponse) (messages.ModifyBearerResponse, bool) {
	_, span := tracer.Start(ctx, "Engine.OnGTPUUpdateTunnelResponse")
	defer span.End()

	subCtx, ok := e.store.LookupContext(resp.LocalTEID)
	if !ok {
		response := messages.ModifyBearerResponse{ResponseHeader: messages.ResponseHeader{Cause: messages.CauseContextNotFound}}
		e.sender.SendModifyBearerResponse(response)
		return response, true
	}

	ebi := subCtx.DefaultBearerID()
	if _, ok := subCtx.Bearer(ebi); !ok {
		response := messages.ModifyBearerResponse{
			ResponseHeader:          e.headerFor(subCtx, messages.CauseContextNotFound),
			BearersMarkedForRemoval: []uint8{ebi},
		}
		e.sender.SendModifyBearerResponse(response)
		return response, true
	}

	e.sender.SendSGiUpdateEndPointRequest(messages.SGiUpdateEndPointRequest{LocalTEID: resp.LocalTEID, EBI: ebi})
	return messages.ModifyBearerResponse{}, false
}
