package grpc

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"task-dispatcher/internal/logger"
	"task-dispatcher/internal/queue"
	"task-dispatcher/internal/task"
)

const (
	serviceName = "dispatch.QueueService"

	// workerIDKey ключ метаданных, которым клиент представляется серверу
	workerIDKey = "x-worker-id"
)

// MaxMessageSize предел размера сообщения в обе стороны. Должен вмещать результат
// read_file максимального размера вместе с обвязкой.
const MaxMessageSize = 64 << 20

// QueueService то, что мастер отдает процессам воркеров
type QueueService interface {
	GetTask(ctx context.Context, block *wrapperspb.BoolValue) (*structpb.Struct, error)
	PutResult(ctx context.Context, result *structpb.Struct) (*emptypb.Empty, error)
	ShutdownState(ctx context.Context, in *emptypb.Empty) (*wrapperspb.BoolValue, error)
}

// QueueServer имплементирует QueueService поверх очередей мастера
type QueueServer struct {
	Tasks    *queue.Queue[task.Item]
	Results  *queue.Queue[task.Result]
	Shutdown *queue.Signal
}

// GetTask отдает следующий элемент очереди задач.
// block=false не ждет и возвращает empty=true для пустой очереди.
// Задача, которую нельзя закодировать, не теряется: вместо нее в очередь результатов
// сразу попадает ошибка, а воркер получает следующий элемент.
func (s *QueueServer) GetTask(ctx context.Context, block *wrapperspb.BoolValue) (*structpb.Struct, error) {
	for {
		var item task.Item
		if !block.GetValue() {
			var err error
			item, err = s.Tasks.TryGet()
			if errors.Is(err, queue.ErrQueueIsEmpty) {
				return itemToStruct(task.Item{}, true), nil
			}
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
		} else {
			var err error
			item, err = s.Tasks.Get(ctx)
			if err != nil {
				return nil, status.FromContextError(err).Err()
			}
		}

		out := itemToStruct(item, false)
		if _, err := proto.Marshal(out); err != nil {
			s.rejectItem(ctx, item, err)
			continue
		}
		return out, nil
	}
}

func (s *QueueServer) rejectItem(ctx context.Context, item task.Item, cause error) {
	workerID := workerIDFromContext(ctx)
	logger.ERROR.Printf("gRPC: task %s cannot be sent to worker %d: %v", item.Task.ShortID(), workerID, cause)
	s.Results.Put(task.NewResult(workerID, item.Task, task.ErrorOutcome("task could not be delivered to worker: %v", cause)))
}

// workerIDFromContext достает id воркера из метаданных вызова; -1 если клиент не представился
func workerIDFromContext(ctx context.Context) int {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return -1
	}
	values := md.Get(workerIDKey)
	if len(values) == 0 {
		return -1
	}
	id, err := strconv.Atoi(values[0])
	if err != nil {
		return -1
	}
	return id
}

func (s *QueueServer) PutResult(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	result, err := resultFromStruct(in)
	if err != nil {
		logger.ERROR.Printf("gRPC: rejected result: %v", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.Results.Put(result)
	return &emptypb.Empty{}, nil
}

func (s *QueueServer) ShutdownState(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.Shutdown.IsSet()), nil
}

func getTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BoolValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueService).GetTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetTask"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueService).GetTask(ctx, req.(*wrapperspb.BoolValue))
	}
	return interceptor(ctx, in, info, handler)
}

func putResultHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueService).PutResult(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/PutResult"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueService).PutResult(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueueService).ShutdownState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ShutdownState"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(QueueService).ShutdownState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var queueServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*QueueService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTask", Handler: getTaskHandler},
		{MethodName: "PutResult", Handler: putResultHandler},
		{MethodName: "ShutdownState", Handler: shutdownStateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dispatch/queue.proto",
}

// RegisterQueueService регистрирует сервис на сервере
func RegisterQueueService(s *grpc.Server, srv QueueService) {
	s.RegisterService(&queueServiceDesc, srv)
}

// Server gRPC сервер очередей на unix-сокете
type Server struct {
	grpc       *grpc.Server
	socketPath string
	done       chan struct{}
}

// StartQueueServer слушает unix-сокет и обслуживает очереди в фоне
func StartQueueServer(socketPath string, srv QueueService) (*Server, error) {
	_ = os.Remove(socketPath)
	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer(
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	)
	RegisterQueueService(s, srv)

	server := &Server{grpc: s, socketPath: socketPath, done: make(chan struct{})}
	logger.INFO.Printf("gRPC queue server listening on %s", socketPath)

	go func() {
		defer close(server.done)
		if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.ERROR.Printf("gRPC queue server failed: %v", err)
		}
	}()

	return server, nil
}

func (s *Server) SocketPath() string {
	return s.socketPath
}

// Stop останавливает сервер. Висящие вызовы получают время timeout, затем рвутся.
func (s *Server) Stop(timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.ERROR.Println("gRPC queue server: graceful stop timed out, forcing")
		s.grpc.Stop()
	}
	<-s.done
	_ = os.Remove(s.socketPath)
	logger.INFO.Println("gRPC queue server stopped")
}
