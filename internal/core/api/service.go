// Package api provides the gRPC host bridge over the logic engine.
package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/solatis/surveylogic/internal/core/db"
	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/survey"
	"github.com/solatis/surveylogic/internal/types"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ScanRecorder persists engine snapshots. Implemented by *db.ScanStore.
type ScanRecorder interface {
	Record(ctx context.Context, survey string, snap logic.Snapshot) (types.ScanID, error)
}

var _ ScanRecorder = (*db.ScanStore)(nil)

// LogicService implements LogicServiceServer.
// Thin orchestration layer: decodes requests, drives the engine, encodes state.
// The engine is single-threaded, so every call holds mu for its whole duration.
type LogicService struct {
	mu       sync.Mutex
	engine   *logic.Engine
	recorder ScanRecorder
	logger   *zap.Logger
}

// NewLogicService creates the service. recorder may be nil to disable recording.
func NewLogicService(engine *logic.Engine, recorder ScanRecorder, logger *zap.Logger) (*LogicService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogicService{
		engine:   engine,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Update rebinds the survey when request field "survey" is present, rescans,
// and returns the new state. With "record": true the snapshot is stored under
// request field "name" before it is published; any failure leaves the engine
// unchanged.
func (s *LogicService) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	record := fields["record"].GetBoolValue()

	if record && s.recorder == nil {
		return nil, status.Error(codes.FailedPrecondition, "scan recording not configured")
	}

	// Stays a nil interface when no survey is sent, so the engine rescans the bound one
	var next types.Survey
	if v, ok := fields["survey"]; ok {
		sv := v.GetStructValue()
		if sv == nil {
			return nil, status.Error(codes.InvalidArgument, "survey must be an object")
		}
		doc, err := survey.NewDecoder(s.engine.Registry()).FromMap(sv.AsMap())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		next = doc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	var scanID types.ScanID
	if record {
		name := fields["name"].GetStringValue()
		if name == "" {
			name = surveyLabel(next, s.engine.Survey())
		}
		id, err := s.recorder.Record(ctx, name, s.engine.Preview(next))
		if err != nil {
			s.logger.Warn("scan recording failed", zap.Error(err))
			return nil, status.Error(codes.Unavailable, fmt.Sprintf("failed to record scan: %v", err))
		}
		scanID = id
	}

	s.engine.Update(next)
	snap := s.engine.Snapshot()

	s.logger.Debug("survey updated",
		zap.Int("items", len(snap.Items)),
		zap.String("mode", string(snap.Mode)),
		zap.String("scan_id", string(scanID)))

	return s.stateLocked(snap, scanID)
}

// GetState returns the current items, mode, version and rule types.
func (s *LogicService) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked(s.engine.Snapshot(), "")
}

// SetMode assigns request field "mode". Invalid modes return INVALID_ARGUMENT
// and leave the engine unchanged.
func (s *LogicService) SetMode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	mode := types.Mode(req.GetFields()["mode"].GetStringValue())

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.SetMode(mode); err != nil {
		if errors.Is(err, types.ErrInvalidMode) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s.stateLocked(s.engine.Snapshot(), "")
}

// LookupType returns the rule type named by request field "name".
func (s *LogicService) LookupType(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := req.GetFields()["name"].GetStringValue()

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.engine.LookupType(name)
	if !ok {
		return nil, status.Error(codes.NotFound, fmt.Sprintf("unknown rule type %q", name))
	}
	return structpb.NewStruct(ruleTypeFields(rt))
}

// stateLocked encodes a snapshot plus the rule-type list. Caller holds mu.
func (s *LogicService) stateLocked(snap logic.Snapshot, scanID types.ScanID) (*structpb.Struct, error) {
	items := make([]any, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, map[string]any{
			"rule_type":    it.RuleType.Name(),
			"element_type": it.Element.Type(),
			"element_name": it.ElementName(),
			"expression":   encodable(it.Expression()),
		})
	}

	ruleTypes := make([]any, 0, len(s.engine.RuleTypes()))
	for _, rt := range s.engine.RuleTypes() {
		ruleTypes = append(ruleTypes, ruleTypeFields(rt))
	}

	fields := map[string]any{
		"version":    float64(snap.Version),
		"mode":       string(snap.Mode),
		"items":      items,
		"rule_types": ruleTypes,
	}
	if scanID != "" {
		fields["scan_id"] = string(scanID)
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("failed to encode state: %v", err))
	}
	return out, nil
}

func ruleTypeFields(rt *logic.RuleType) map[string]any {
	return map[string]any{
		"name":             rt.Name(),
		"display_text":     rt.DisplayText(),
		"element_category": rt.ElementCategory(),
		"property_name":    rt.PropertyName(),
		"visible":          rt.Visible(),
	}
}

// encodable converts values structpb cannot hold (e.g. typed slices) to strings.
func encodable(v any) any {
	if _, err := structpb.NewValue(v); err != nil {
		return fmt.Sprint(v)
	}
	return v
}

// surveyLabel picks a recording name for surveys submitted without one:
// the title of the incoming survey, else of the bound one, else "untitled".
func surveyLabel(candidates ...types.Survey) string {
	for _, c := range candidates {
		if doc, ok := c.(*survey.Document); ok && doc.Title() != "" {
			return doc.Title()
		}
	}
	return "untitled"
}
