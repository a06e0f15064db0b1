package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region client-struct
// SessionClient talks to a crisis.v1.SessionService server.
type SessionClient struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// #endregion client-struct

// #region constructor
// NewSessionClient connects to a session server.
func NewSessionClient(addr string) (*SessionClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &SessionClient{conn: conn, cc: conn}, nil
}

// NewSessionClientWithConn creates a client over an existing connection.
// Close does not close cc.
func NewSessionClientWithConn(cc grpc.ClientConnInterface) *SessionClient {
	return &SessionClient{cc: cc}
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection when the client owns it.
func (c *SessionClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region calls
// Snapshot fetches the current session view.
func (c *SessionClient) Snapshot(ctx context.Context) (Snapshot, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodSnapshot, &emptypb.Empty{}, out); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot rpc: %w", err)
	}
	return decodeSnapshot(out)
}

// Act sends one participant action.
func (c *SessionClient) Act(ctx context.Context, req ActRequest) (Snapshot, error) {
	in, err := encodeActRequest(req)
	if err != nil {
		return Snapshot{}, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodAct, in, out); err != nil {
		return Snapshot{}, fmt.Errorf("act rpc: %w", err)
	}
	return decodeSnapshot(out)
}

// #endregion calls
