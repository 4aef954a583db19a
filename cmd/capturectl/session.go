package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/capture-tracker/internal/app"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/server"
)

// session is a Caller plus whatever must be torn down after the command.
type session struct {
	server.Caller
	app   *app.App
	close func()
}

// open dials the daemon when --addr is set, otherwise wires the stack in-process.
func open(ctx context.Context) (*session, error) {
	logger := newLogger()

	if addr != "" {
		conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return &session{
			Caller: server.NewClient(conn),
			close: func() {
				if err := conn.Close(); err != nil {
					logger.Warn("close connection", "error", err)
				}
			},
		}, nil
	}

	cfg, err := common.LoadConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	idxCtx, stopIdx := context.WithCancel(context.Background())
	go func() { _ = a.Index.Run(idxCtx) }()

	svc := server.NewCaptureService(server.Deps{
		Content:   a.Service,
		Scheduler: a.Scheduler,
		Ingest:    a.Ingestor,
		Export:    a.Export,
		Health:    a.HealthCheck,
	}, logger)

	return &session{
		Caller: server.NewLocalClient(svc, server.LoggingInterceptor(logger)),
		app:    a,
		close: func() {
			stopIdx()
			c, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := a.Close(c); err != nil {
				logger.Warn("shutdown", "error", err)
			}
		},
	}, nil
}

// warm fills the in-process search index; a daemon keeps its own warm.
func (s *session) warm(ctx context.Context, logger *slog.Logger) error {
	if s.app == nil {
		return nil
	}
	n, err := s.app.Service.Warm(ctx)
	if err != nil {
		return err
	}
	logger.Info("search.warm.done", "items", n)
	return nil
}

// call opens a session, runs one method and prints the response as JSON.
func call(ctx context.Context, method string, req map[string]any) error {
	s, err := open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	out, err := s.Call(ctx, method, req)
	if err != nil {
		return err
	}
	return printStruct(out)
}

func printStruct(out *structpb.Struct) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}
