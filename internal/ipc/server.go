package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"ferry/internal/daemon"
	"ferry/internal/logging"
	"ferry/internal/manager"
	"ferry/internal/records"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Ferry", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.log().Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.DatabasePath = status.DatabasePath
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.NetworkOnline = status.NetworkOnline
	resp.StateCounts = status.StateCounts
	return nil
}

func (s *service) UploadAdd(req UploadAddRequest, resp *UploadAddResponse) error {
	s.log().Debug("upload add requested",
		logging.String("source", req.SourcePath))
	view, err := s.daemon.AddUpload(s.ctx, manager.AddRequest{
		SourcePath:  req.SourcePath,
		OwnerID:     req.OwnerID,
		Destination: req.Destination,
		MimeType:    req.MimeType,
		Context:     req.Context,
	}, req.Start)
	if err != nil {
		return err
	}
	resp.Upload = *view
	return nil
}

func (s *service) UploadStart(req UploadControlRequest, resp *UploadControlResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("upload start requires an id")
	}
	return s.daemon.StartUpload(s.ctx, req.ID)
}

func (s *service) UploadPause(req UploadControlRequest, resp *UploadControlResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("upload pause requires an id")
	}
	return s.daemon.PauseUpload(s.ctx, req.ID)
}

func (s *service) UploadResume(req UploadControlRequest, resp *UploadControlResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("upload resume requires an id")
	}
	return s.daemon.ResumeUpload(s.ctx, req.ID)
}

func (s *service) UploadCancel(req UploadControlRequest, resp *UploadControlResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("upload cancel requires an id")
	}
	return s.daemon.CancelUpload(s.ctx, req.ID)
}

func (s *service) UploadRemove(req UploadControlRequest, resp *UploadControlResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("upload remove requires an id")
	}
	return s.daemon.RemoveUpload(s.ctx, req.ID)
}

func (s *service) UploadList(req UploadListRequest, resp *UploadListResponse) error {
	all := req.All || len(req.States) > 0
	uploads, err := s.daemon.ListUploads(s.ctx, all)
	if err != nil {
		return err
	}
	if len(req.States) > 0 {
		wanted := make(map[string]struct{}, len(req.States))
		for _, state := range req.States {
			parsed, ok := records.ParseState(state)
			if !ok {
				continue
			}
			wanted[string(parsed)] = struct{}{}
		}
		filtered := uploads[:0]
		for _, upload := range uploads {
			if _, ok := wanted[upload.State]; ok {
				filtered = append(filtered, upload)
			}
		}
		uploads = filtered
	}
	resp.Uploads = uploads
	return nil
}

func (s *service) UploadDescribe(req UploadDescribeRequest, resp *UploadDescribeResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("upload describe requires an id")
	}
	view, err := s.daemon.GetUpload(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("upload %s not found", req.ID)
	}
	resp.Upload = *view
	return nil
}

func (s *service) UploadCleanup(req UploadCleanupRequest, resp *UploadCleanupResponse) error {
	s.log().Debug("upload cleanup requested",
		logging.Bool("failed_only", req.FailedOnly))
	removed, err := s.daemon.Cleanup(s.ctx, req.FailedOnly)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.log().Info("finished uploads cleaned up",
		logging.String(logging.FieldEventType, "upload_cleanup"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) NotificationList(req NotificationListRequest, resp *NotificationListResponse) error {
	list, err := s.daemon.Notifications(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Notifications = list
	return nil
}

func (s *service) NotificationDismiss(req NotificationDismissRequest, _ *NotificationDismissResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid notification id %d", req.ID)
	}
	return s.daemon.DismissNotification(s.ctx, req.ID)
}

func (s *service) NotificationClear(_ NotificationClearRequest, _ *NotificationClearResponse) error {
	return s.daemon.ClearNotifications(s.ctx)
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
