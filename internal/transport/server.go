package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/flow"
	"github.com/danielpatrickdp/crisis-decisions/go-controller/internal/ranking"
)

// #region service-desc
// SessionServer is the server API for crisis.v1.SessionService.
type SessionServer interface {
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Act(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes crisis.v1.SessionService. Messages are well-known
// Struct and Empty types, so no generated stubs are needed.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Snapshot", Handler: snapshotHandler},
		{MethodName: "Act", Handler: actHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crisis/v1/session.proto",
}

// Register attaches srv to a gRPC server.
func Register(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSnapshot}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func actHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Act(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodAct}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Act(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region service
// Service serves one session machine. Confirmed decisions are advanced through
// the pacer when one is set; otherwise clients send an explicit advance action.
type Service struct {
	machine *flow.Machine
	pacer   *flow.Pacer
	log     *slog.Logger
}

var _ SessionServer = (*Service)(nil)

// NewService wraps a machine. pacer may be nil.
func NewService(m *flow.Machine, pacer *flow.Pacer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{machine: m, pacer: pacer, log: logger}
}

// Snapshot returns the current view without changing state.
func (s *Service) Snapshot(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := s.machine.State()
	return encodeSnapshot(s.snapshot(flow.Feedback{Accepted: true, Message: st.Message, Phase: st.Phase}))
}

// Act applies one action and returns the resulting view. Rejected actions are
// not errors: the snapshot carries accepted=false and the guidance message.
func (s *Service) Act(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	cmd := decodeCommand(req)
	fb, err := s.machine.Dispatch(cmd)
	if err != nil {
		s.log.Debug("action failed", "action", cmd.Action, "err", err)
		return nil, toStatus(err)
	}
	if fb.Transition != nil && s.pacer != nil {
		tr := *fb.Transition
		s.pacer.ScheduleAdvance(s.machine, tr, func(applied bool, err error) {
			if err != nil {
				s.log.Error("deferred advance failed", "generation", tr.Generation, "err", err)
				return
			}
			s.log.Debug("deferred advance", "generation", tr.Generation, "applied", applied)
		})
	}
	return encodeSnapshot(s.snapshot(fb))
}

func (s *Service) snapshot(fb flow.Feedback) Snapshot {
	sc, idx := s.machine.Scenario()
	st := s.machine.State()
	sim, changed := s.machine.Metrics()
	snap := Snapshot{
		ScenarioIndex: idx,
		ScenarioID:    sc.ID,
		Title:         sc.Title,
		Description:   sc.Description,
		Tier:          string(s.machine.Tier()),
		Options:       s.machine.CurrentOptions(),
		State:         st,
		Metrics:       sim,
		Changed:       changed,
		Reordered:     s.machine.ValuesReordered(),
		Accepted:      fb.Accepted,
		Message:       fb.Message,
		Transition:    fb.Transition,
		Done:          s.machine.Done(),
	}
	if st.AlternativesOpen {
		snap.Alternatives = s.machine.AlternativeOptions()
	}
	if snap.Message == "" {
		snap.Message = st.Message
	}
	return snap
}

// #endregion service

// #region codec
func decodeCommand(req *structpb.Struct) flow.Command {
	f := req.GetFields()
	cmd := flow.Command{
		Action:   f["action"].GetStringValue(),
		OptionID: f["option_id"].GetStringValue(),
		Basis:    f["basis"].GetStringValue(),
	}
	if v, ok := f["answer"]; ok {
		if b, isBool := v.GetKind().(*structpb.Value_BoolValue); isBool {
			answer := b.BoolValue
			cmd.Answer = &answer
		}
	}
	for _, v := range f["order"].GetListValue().GetValues() {
		cmd.Order = append(cmd.Order, v.GetStringValue())
	}
	return cmd
}

func encodeActRequest(req ActRequest) (*structpb.Struct, error) {
	fields := map[string]any{"action": req.Action}
	if req.OptionID != "" {
		fields["option_id"] = req.OptionID
	}
	if req.Answer != nil {
		fields["answer"] = *req.Answer
	}
	if req.Basis != "" {
		fields["basis"] = req.Basis
	}
	if len(req.Order) > 0 {
		order := make([]any, len(req.Order))
		for i, id := range req.Order {
			order[i] = id
		}
		fields["order"] = order
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode act request: %w", err)
	}
	return s, nil
}

func encodeSnapshot(snap Snapshot) (*structpb.Struct, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode snapshot: %v", err)
	}
	return out, nil
}

func decodeSnapshot(s *structpb.Struct) (Snapshot, error) {
	var snap Snapshot
	data, err := protojson.Marshal(s)
	if err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// toStatus maps machine errors onto gRPC status codes.
func toStatus(err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, flow.ErrBadCommand), errors.Is(err, ranking.ErrIncompleteRanking):
		code = codes.InvalidArgument
	case errors.Is(err, flow.ErrUnknownOption):
		code = codes.NotFound
	case errors.Is(err, flow.ErrInvalidPhase), errors.Is(err, flow.ErrAlternativesClosed), errors.Is(err, flow.ErrSessionComplete):
		code = codes.FailedPrecondition
	case errors.Is(err, flow.ErrClosed):
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}

// #endregion codec
