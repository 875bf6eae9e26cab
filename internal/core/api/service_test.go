package api

import (
	"context"
	"errors"
	"testing"

	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/survey"
	"github.com/solatis/surveylogic/internal/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeRecorder struct {
	names []string
	snaps []logic.Snapshot
	err   error
}

func (f *fakeRecorder) Record(ctx context.Context, name string, snap logic.Snapshot) (types.ScanID, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, name)
	f.snaps = append(f.snaps, snap)
	return types.NewScanID(), nil
}

func newTestService(t *testing.T, recorder ScanRecorder) *LogicService {
	t.Helper()
	engine := logic.NewEngine(survey.NewDocument(), survey.DefaultRegistry(), logic.Options{})
	svc, err := NewLogicService(engine, recorder, nil)
	if err != nil {
		t.Fatalf("NewLogicService() error = %v", err)
	}
	return svc
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct() error = %v", err)
	}
	return s
}

var twoPageSurvey = map[string]any{
	"title": "Feedback",
	"pages": []any{
		map[string]any{
			"name":      "intro",
			"visibleIf": "{consent} = true",
			"elements": []any{
				map[string]any{"type": "radiogroup", "name": "rating", "visibleIf": "{consent} = true"},
			},
		},
		map[string]any{"name": "outro"},
	},
}

func TestNewLogicService_NilEngine(t *testing.T) {
	if _, err := NewLogicService(nil, nil, nil); err == nil {
		t.Error("expected error for nil engine")
	}
}

func TestLogicService_Update(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.Update(context.Background(), mustStruct(t, map[string]any{"survey": twoPageSurvey}))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	fields := resp.GetFields()
	if mode := fields["mode"].GetStringValue(); mode != "view" {
		t.Errorf("mode = %v, want view", mode)
	}
	items := fields["items"].GetListValue().GetValues()
	if len(items) != 2 {
		t.Fatalf("len(items) = %v, want 2", len(items))
	}
	first := items[0].GetStructValue().GetFields()
	if first["rule_type"].GetStringValue() != logic.PageVisibility || first["element_name"].GetStringValue() != "intro" {
		t.Errorf("items[0] = %v", items[0])
	}
	second := items[1].GetStructValue().GetFields()
	if second["rule_type"].GetStringValue() != logic.QuestionVisibility || second["element_type"].GetStringValue() != "radiogroup" {
		t.Errorf("items[1] = %v", items[1])
	}

	ruleTypes := fields["rule_types"].GetListValue().GetValues()
	if len(ruleTypes) != 3 {
		t.Fatalf("len(rule_types) = %v, want 3", len(ruleTypes))
	}
	panel := ruleTypes[2].GetStructValue().GetFields()
	if panel["visible"].GetBoolValue() {
		t.Errorf("panel_visibility visible = true, want false without panels")
	}
	if _, ok := fields["scan_id"]; ok {
		t.Errorf("scan_id present without recording")
	}
}

func TestLogicService_UpdateInvalidSurvey(t *testing.T) {
	svc := newTestService(t, nil)

	tests := []struct {
		name string
		req  map[string]any
	}{
		{name: "survey not object", req: map[string]any{"survey": "x"}},
		{name: "pages not array", req: map[string]any{"survey": map[string]any{"pages": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), mustStruct(t, tt.req))
			if status.Code(err) != codes.InvalidArgument {
				t.Errorf("Update() code = %v, want InvalidArgument", status.Code(err))
			}
		})
	}
}

func TestLogicService_UpdateRecords(t *testing.T) {
	recorder := &fakeRecorder{}
	svc := newTestService(t, recorder)

	resp, err := svc.Update(context.Background(), mustStruct(t, map[string]any{
		"survey": twoPageSurvey,
		"record": true,
	}))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if resp.GetFields()["scan_id"].GetStringValue() == "" {
		t.Error("scan_id missing from response")
	}
	if len(recorder.names) != 1 || recorder.names[0] != "Feedback" {
		t.Errorf("recorded names = %v, want [Feedback]", recorder.names)
	}
	if len(recorder.snaps[0].Items) != 2 {
		t.Errorf("recorded %d items, want 2", len(recorder.snaps[0].Items))
	}
	if got, want := recorder.snaps[0].Version, svc.engine.Version(); got != want {
		t.Errorf("recorded version = %v, want published version %v", got, want)
	}
}

func TestLogicService_UpdateRecordFailureKeepsState(t *testing.T) {
	recorder := &fakeRecorder{err: errors.New("disk full")}
	svc := newTestService(t, recorder)
	before := svc.engine.Snapshot()

	_, err := svc.Update(context.Background(), mustStruct(t, map[string]any{
		"survey": twoPageSurvey,
		"record": true,
	}))
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("Update() code = %v, want Unavailable", status.Code(err))
	}

	after := svc.engine.Snapshot()
	if after.Version != before.Version || after.Mode != before.Mode || len(after.Items) != len(before.Items) {
		t.Errorf("engine changed on failed record: before %v/%v/%d, after %v/%v/%d",
			before.Version, before.Mode, len(before.Items), after.Version, after.Mode, len(after.Items))
	}
}

func TestLogicService_UpdateRecordWithoutRecorder(t *testing.T) {
	svc := newTestService(t, nil)
	before := svc.engine.Snapshot()

	_, err := svc.Update(context.Background(), mustStruct(t, map[string]any{
		"survey": twoPageSurvey,
		"record": true,
	}))
	if status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Update() code = %v, want FailedPrecondition", status.Code(err))
	}

	after := svc.engine.Snapshot()
	if after.Version != before.Version {
		t.Errorf("Version = %v, want unchanged %v", after.Version, before.Version)
	}
	if len(after.Items) != len(before.Items) || after.Mode != before.Mode {
		t.Errorf("state = %v items/%v, want unchanged %v items/%v",
			len(after.Items), after.Mode, len(before.Items), before.Mode)
	}
	if svc.engine.Survey().(*survey.Document).Title() != "" {
		t.Error("survey rebound despite rejected Update")
	}
}

func TestLogicService_UpdatePanelSubclass(t *testing.T) {
	registry := survey.DefaultRegistry()
	registry.Register("mypanel", "panel")
	engine := logic.NewEngine(survey.NewDocument(), registry, logic.Options{})
	svc, err := NewLogicService(engine, nil, nil)
	if err != nil {
		t.Fatalf("NewLogicService() error = %v", err)
	}

	resp, err := svc.Update(context.Background(), mustStruct(t, map[string]any{"survey": map[string]any{
		"pages": []any{map[string]any{
			"name": "p1",
			"elements": []any{map[string]any{
				"type":      "mypanel",
				"name":      "box",
				"visibleIf": "{a} = 1",
				"elements": []any{
					map[string]any{"type": "text", "name": "inner", "visibleIf": "{b} = 1"},
				},
			}},
		}},
	}}))
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	var got []string
	for _, it := range resp.GetFields()["items"].GetListValue().GetValues() {
		f := it.GetStructValue().GetFields()
		got = append(got, f["rule_type"].GetStringValue()+":"+f["element_name"].GetStringValue())
	}
	want := []string{logic.QuestionVisibility + ":inner", logic.PanelVisibility + ":box"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("items = %v, want %v", got, want)
	}
}

func TestLogicService_UpdateCancelledContext(t *testing.T) {
	svc := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Update(ctx, mustStruct(t, map[string]any{}))
	if status.Code(err) != codes.Canceled {
		t.Errorf("Update() code = %v, want Canceled", status.Code(err))
	}
}

func TestLogicService_SetMode(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.SetMode(context.Background(), mustStruct(t, map[string]any{"mode": "new"}))
	if err != nil {
		t.Fatalf("SetMode(new) error = %v", err)
	}
	if mode := resp.GetFields()["mode"].GetStringValue(); mode != "new" {
		t.Errorf("mode = %v, want new", mode)
	}

	_, err = svc.SetMode(context.Background(), mustStruct(t, map[string]any{"mode": "archive"}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("SetMode(archive) code = %v, want InvalidArgument", status.Code(err))
	}

	state, err := svc.GetState(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if mode := state.GetFields()["mode"].GetStringValue(); mode != "new" {
		t.Errorf("mode after rejected SetMode = %v, want new", mode)
	}
}

func TestLogicService_LookupType(t *testing.T) {
	svc := newTestService(t, nil)

	resp, err := svc.LookupType(context.Background(), mustStruct(t, map[string]any{"name": logic.PanelVisibility}))
	if err != nil {
		t.Fatalf("LookupType() error = %v", err)
	}
	fields := resp.GetFields()
	if fields["element_category"].GetStringValue() != "panel" {
		t.Errorf("element_category = %v, want panel", fields["element_category"].GetStringValue())
	}
	if fields["display_text"].GetStringValue() != logic.PanelVisibility {
		t.Errorf("display_text = %v, want %v", fields["display_text"].GetStringValue(), logic.PanelVisibility)
	}

	_, err = svc.LookupType(context.Background(), mustStruct(t, map[string]any{"name": "nope"}))
	if status.Code(err) != codes.NotFound {
		t.Errorf("LookupType(nope) code = %v, want NotFound", status.Code(err))
	}
}

func TestEncodable(t *testing.T) {
	if got := encodable("{a} = 1"); got != "{a} = 1" {
		t.Errorf("encodable(string) = %v", got)
	}
	if got := encodable(struct{ A int }{1}); got != "{1}" {
		t.Errorf("encodable(struct) = %v, want {1}", got)
	}
}
