package alarm

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/window-alarm/internal/domain/alarm"
)

var errTestPersist = errors.New("test persist error")

// fakeService implements the alarm Service interface for unit testing the transport.
type fakeService struct {
	// snapshot is the state returned by every call.
	snapshot domain.Snapshot
	// err is returned by every mutation when set.
	err error
}

func (f *fakeService) Snapshot() domain.Snapshot { return f.snapshot }

func (f *fakeService) SetEnabled(_ context.Context, enabled bool) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}

	f.snapshot.Config.Enabled = enabled
	f.snapshot.Status = domain.StatusOff

	if enabled {
		f.snapshot.Status = domain.StatusArmed
	}

	return f.snapshot, nil
}

func (f *fakeService) SetWindow(_ context.Context, start, end int) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}

	f.snapshot.Config.Window = domain.Window{Start: start, End: end}

	return f.snapshot, nil
}

func (f *fakeService) SetInterval(_ context.Context, minutes int) (domain.Snapshot, error) {
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}

	f.snapshot.Config.Interval = domain.ClampInterval(minutes)

	return f.snapshot, nil
}

func (f *fakeService) Acknowledge(context.Context) domain.Snapshot {
	if f.snapshot.Status == domain.StatusRinging {
		f.snapshot.Status = domain.StatusArmed
	}

	return f.snapshot
}

// TestServer_Validation ensures invalid requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewServer(new(fakeService))

	_, err := s.SetEnabled(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetWindow(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetWindow(ctx, WindowRequest(1320, 1440))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetWindow(ctx, &structpb.Struct{})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SetInterval(ctx, nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_PersistFailure maps service errors to Internal.
func TestServer_PersistFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewServer(&fakeService{err: errTestPersist})

	_, err := s.SetEnabled(ctx, wrapperspb.Bool(true))
	require.Equal(t, codes.Internal, status.Code(err))

	_, err = s.SetWindow(ctx, WindowRequest(0, 60))
	require.Equal(t, codes.Internal, status.Code(err))

	_, err = s.SetInterval(ctx, wrapperspb.UInt32(10))
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestStructRoundtrip verifies the snapshot codec and its error reporting.
func TestStructRoundtrip(t *testing.T) {
	t.Parallel()

	want := domain.Snapshot{
		Config: domain.Config{
			Enabled:  true,
			Window:   domain.Window{Start: 1320, End: 360},
			Interval: 20,
		},
		Status:         domain.StatusRinging,
		NextFireMinute: 1340,
	}

	got, err := FromStruct(ToStruct(want))
	require.NoError(t, err)
	require.Equal(t, want, got)

	broken := ToStruct(want)
	delete(broken.Fields, fieldInterval)

	_, err = FromStruct(broken)
	require.ErrorIs(t, err, ErrMissingField)

	broken = ToStruct(want)
	broken.Fields[fieldStatus] = structpb.NewStringValue("snoozed")

	_, err = FromStruct(broken)
	require.ErrorIs(t, err, ErrBadField)

	broken = ToStruct(want)
	broken.Fields[fieldWindowStart] = structpb.NewNumberValue(1.5)

	_, err = FromStruct(broken)
	require.ErrorIs(t, err, ErrBadField)
}

// TestServer_OverGRPC exercises the service descriptor through a real in-memory connection.
func TestServer_OverGRPC(t *testing.T) {
	t.Parallel()

	listener := bufconn.Listen(1 << 16)
	grpcServer := grpc.NewServer()

	service := &fakeService{
		snapshot: domain.Snapshot{
			Config: domain.Config{Interval: 60},
			Status: domain.StatusRinging,
		},
	}
	RegisterAlarmServiceServer(grpcServer, NewServer(service))

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	ctx := context.Background()
	out := new(structpb.Struct)

	require.NoError(t, conn.Invoke(ctx, MethodSetWindow, WindowRequest(1320, 360), out))
	require.NoError(t, conn.Invoke(ctx, MethodSetInterval, wrapperspb.UInt32(400), out))
	require.NoError(t, conn.Invoke(ctx, MethodAcknowledge, new(emptypb.Empty), out))
	require.NoError(t, conn.Invoke(ctx, MethodGetAlarm, new(emptypb.Empty), out))

	snapshot, err := FromStruct(out)
	require.NoError(t, err)
	require.Equal(t, domain.Window{Start: 1320, End: 360}, snapshot.Config.Window)
	require.Equal(t, domain.MaxInterval, snapshot.Config.Interval)
	require.Equal(t, domain.StatusArmed, snapshot.Status)

	err = conn.Invoke(ctx, MethodSetWindow, WindowRequest(-1, 360), out)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
