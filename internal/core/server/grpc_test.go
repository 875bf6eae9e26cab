package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/solatis/surveylogic/internal/core/api"
	"github.com/solatis/surveylogic/internal/core/config"
	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/survey"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func startTestServer(t *testing.T) *grpc.ClientConn {
	t.Helper()

	doc := survey.NewDocument(
		survey.NewPage("p1").SetProperty("visibleIf", "{a} = 1"),
		survey.NewPage("p2"),
	)
	engine := logic.NewEngine(doc, survey.DefaultRegistry(), logic.Options{})
	service, err := api.NewLogicService(engine, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewLogicService() error = %v", err)
	}

	cfg := config.DefaultConfig().Server
	srv, err := NewGRPCServer(&cfg, service, zap.NewNop())
	if err != nil {
		t.Fatalf("NewGRPCServer() error = %v", err)
	}

	listener := bufconn.Listen(1024 * 1024)
	go srv.Serve(listener)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestNewGRPCServer_Validation(t *testing.T) {
	cfg := config.DefaultConfig().Server
	if _, err := NewGRPCServer(nil, &api.LogicService{}, nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewGRPCServer(&cfg, nil, nil); err == nil {
		t.Error("expected error for nil service")
	}
}

func TestGRPCServer_GetState(t *testing.T) {
	conn := startTestServer(t)
	ctx := context.Background()

	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, api.LogicServiceGetState, &emptypb.Empty{}, out); err != nil {
		t.Fatalf("GetState error = %v", err)
	}
	if mode := out.GetFields()["mode"].GetStringValue(); mode != "view" {
		t.Errorf("mode = %v, want view", mode)
	}
	if n := len(out.GetFields()["items"].GetListValue().GetValues()); n != 1 {
		t.Errorf("len(items) = %v, want 1", n)
	}
}

func TestGRPCServer_SetModeInvalid(t *testing.T) {
	conn := startTestServer(t)

	req, err := structpb.NewStruct(map[string]any{"mode": "bogus"})
	if err != nil {
		t.Fatalf("NewStruct() error = %v", err)
	}
	err = conn.Invoke(context.Background(), api.LogicServiceSetMode, req, new(structpb.Struct))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("SetMode code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestGRPCServer_Health(t *testing.T) {
	conn := startTestServer(t)

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestTimeoutInterceptor(t *testing.T) {
	interceptor := TimeoutInterceptor(50 * time.Millisecond)

	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req interface{}) (interface{}, error) {
		deadline, ok := ctx.Deadline()
		if !ok {
			t.Fatal("handler context has no deadline")
		}
		if time.Until(deadline) > 50*time.Millisecond {
			t.Errorf("deadline too far: %v", time.Until(deadline))
		}
		return nil, nil
	})
	if err != nil {
		t.Errorf("interceptor error = %v", err)
	}
}
