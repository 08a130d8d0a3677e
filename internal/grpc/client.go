package grpc

import (
	"context"
	"strconv"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"task-dispatcher/internal/task"
)

// Таймаут коротких вызовов; блокирующий GetTask ограничен только контекстом
var callTimeout = 5 * time.Second

// QueueClient клиент очередей мастера для процесса воркера.
// Реализует worker.TaskSource, worker.ResultSink и worker.ShutdownSignal.
type QueueClient struct {
	conn     *grpc.ClientConn
	workerID int
	shutdown atomic.Bool
}

// DialUnix подключается к мастеру через unix-сокет от имени воркера workerID
func DialUnix(socketPath string, workerID int) (*QueueClient, error) {
	client, err := NewQueueClient("unix:"+socketPath, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return client.WithWorkerID(workerID), nil
}

// NewQueueClient создает клиента с произвольными опциями, например для bufconn в тестах
func NewQueueClient(target string, opts ...grpc.DialOption) (*QueueClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(MaxMessageSize),
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
		),
	}, opts...)
	conn, err := grpc.Dial(target, opts...)
	if err != nil {
		return nil, err
	}
	return &QueueClient{conn: conn, workerID: -1}, nil
}

// WithWorkerID задает id, которым клиент представляется мастеру
func (c *QueueClient) WithWorkerID(id int) *QueueClient {
	c.workerID = id
	return c
}

func (c *QueueClient) outgoing(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, workerIDKey, strconv.Itoa(c.workerID))
}

// Close закрывает соединение с сервером
func (c *QueueClient) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *QueueClient) getTask(ctx context.Context, block bool) (task.Item, bool, error) {
	out := new(structpb.Struct)
	// Без WaitForReady: пропавший мастер дает Unavailable, и воркер считает это ошибкой получения
	err := c.conn.Invoke(c.outgoing(ctx), "/"+serviceName+"/GetTask", wrapperspb.Bool(block), out)
	if err != nil {
		return task.Item{}, false, err
	}
	item, empty, err := itemFromStruct(out)
	if err != nil {
		return task.Item{}, false, err
	}
	return item, !empty, nil
}

// Get ждет следующий элемент очереди задач
func (c *QueueClient) Get(ctx context.Context) (task.Item, error) {
	for {
		item, ok, err := c.getTask(ctx, true)
		if err != nil {
			return item, err
		}
		if ok {
			return item, nil
		}
	}
}

// TryGet забирает элемент без ожидания; false означает пустую очередь
func (c *QueueClient) TryGet(ctx context.Context) (task.Item, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.getTask(ctx, false)
}

// Put отправляет результат в очередь результатов мастера
func (c *QueueClient) Put(ctx context.Context, result task.Result) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	return c.conn.Invoke(c.outgoing(ctx), "/"+serviceName+"/PutResult", resultToStruct(result), new(emptypb.Empty))
}

// IsSet спрашивает мастера, начата ли остановка. Ошибка связи считается как "нет":
// без мастера воркер все равно упрется в ошибки Get.
func (c *QueueClient) IsSet() bool {
	if c.shutdown.Load() {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	out := new(wrapperspb.BoolValue)
	if err := c.conn.Invoke(c.outgoing(ctx), "/"+serviceName+"/ShutdownState", &emptypb.Empty{}, out); err != nil {
		return false
	}
	if out.GetValue() {
		c.shutdown.Store(true)
	}
	return out.GetValue()
}
