package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/async"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/content"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// Scheduler is the capture queue the service submits to.
type Scheduler interface {
	Submit(ctx context.Context, job async.Job) (<-chan async.Result, error)
	SubmitAndWait(ctx context.Context, job async.Job) (*entity.ContentItem, error)
	Stats() (pending, running int)
}

// HealthFunc reports storage health.
type HealthFunc func(ctx context.Context) error

// CaptureService implements CaptureServiceServer.
type CaptureService struct {
	content   *content.Service
	scheduler Scheduler
	ingest    Ingestor
	export    Exporter
	health    HealthFunc
	logger    *slog.Logger
}

var _ CaptureServiceServer = (*CaptureService)(nil)

type Deps struct {
	Content   *content.Service
	Scheduler Scheduler
	Ingest    Ingestor
	Export    Exporter
	Health    HealthFunc
}

func NewCaptureService(d Deps, logger *slog.Logger) *CaptureService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureService{
		content:   d.Content,
		scheduler: d.Scheduler,
		ingest:    d.Ingest,
		export:    d.Export,
		health:    d.Health,
		logger:    logger,
	}
}

// ProcessCapture accepts {content_type, text, image_base64, source_url, source,
// metadata, priority, wait}. With wait=false (default true) it returns once queued.
func (s *CaptureService) ProcessCapture(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c := entity.Capture{
		ContentType: constants.ContentType(strings.ToLower(str(req, "content_type"))),
		Text:        req.GetFields()["text"].GetStringValue(),
		SourceURL:   str(req, "source_url"),
		Metadata:    stringMap(req, "metadata"),
		Priority:    num(req, "priority"),
		CapturedAt:  time.Now().UTC(),
	}
	if src, ok := constants.CanonicalizeSource(str(req, "source")); ok {
		c.Source = src
	} else {
		c.Source = constants.SourceManual
	}
	if b64 := str(req, "image_base64"); b64 != "" {
		img, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "image_base64 is not valid base64")
		}
		c.ImageData = img
	}
	if err := c.Validate(); err != nil {
		return nil, common.ToStatus(err)
	}

	job := async.Job{
		Capture:     c,
		Priority:    c.Priority,
		SubmittedAt: time.Now(),
		TraceID:     common.RequestIDFromContext(ctx),
	}
	if !flag(req, "wait", true) {
		if _, err := s.scheduler.Submit(ctx, job); err != nil {
			return nil, common.ToStatus(err)
		}
		pending, running := s.scheduler.Stats()
		return toStruct(map[string]any{"queued": true, "pending": pending, "running": running})
	}

	item, err := s.scheduler.SubmitAndWait(ctx, job)
	if err != nil {
		if item != nil {
			s.logger.Warn("server.process.failed", "content_id", item.ID, "error", err)
		}
		return nil, common.ToStatus(err)
	}
	return toStruct(viewOf(item))
}

func (s *CaptureService) GetContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return nil, err
	}
	item, err := s.content.Get(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(viewOf(item))
}

// ListContent accepts {content_type, status, favorite_only, limit, offset}.
func (s *CaptureService) ListContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.content.List(ctx, entity.ContentFilter{
		ContentType:  constants.ContentType(strings.ToLower(str(req, "content_type"))),
		Status:       constants.ProcessingStatus(strings.ToLower(str(req, "status"))),
		FavoriteOnly: flag(req, "favorite_only", false),
		Limit:        num(req, "limit"),
		Offset:       num(req, "offset"),
	})
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"items": views(items)})
}

func (s *CaptureService) SearchContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.content.Search(ctx, str(req, "query"), num(req, "limit"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"items": views(items)})
}

func (s *CaptureService) ToggleFavorite(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return nil, err
	}
	item, err := s.content.ToggleFavorite(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(viewOf(item))
}

// EditContent accepts {id, title?, full_text?}.
func (s *CaptureService) EditContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return nil, err
	}
	item, err := s.content.Edit(ctx, id, entity.ContentEdit{
		Title:    optStr(req, "title"),
		FullText: optStr(req, "full_text"),
	})
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(viewOf(item))
}

func (s *CaptureService) DeleteContent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return nil, err
	}
	if err := s.content.Delete(ctx, id); err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"deleted": id.String()})
}

func (s *CaptureService) Reprocess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return nil, err
	}
	item, err := s.content.Reprocess(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(viewOf(item))
}

// ListTasks accepts {content_id?, open_only, limit}.
func (s *CaptureService) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := entity.TaskFilter{OpenOnly: flag(req, "open_only", false), Limit: num(req, "limit")}
	if str(req, "content_id") != "" {
		id, err := requireID(req, "content_id")
		if err != nil {
			return nil, err
		}
		f.ContentID = &id
	}
	ts, err := s.content.Tasks(ctx, f)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{"tasks": ts})
}

func (s *CaptureService) ToggleTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(req, "id")
	if err != nil {
		return nil, err
	}
	t, err := s.content.ToggleTask(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(t)
}

func (s *CaptureService) Health(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	state := "SERVING"
	var dbErr string
	if s.health != nil {
		if err := s.health(ctx); err != nil {
			state = "NOT_SERVING"
			dbErr = err.Error()
		}
	}
	pending, running := s.scheduler.Stats()
	return toStruct(map[string]any{
		"status":   state,
		"db_error": dbErr,
		"pending":  pending,
		"running":  running,
	})
}

// LoggingInterceptor tags each call with a request id and logs its outcome.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		rid := uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
		start := time.Now()
		resp, err := next(ctx, req)
		log := logger.With("req_id", rid, "method", info.FullMethod, "elapsed_ms", time.Since(start).Milliseconds())
		if err != nil {
			log.Warn("server.call.failed", "code", status.Code(err).String(), "error", err)
		} else {
			log.Debug("server.call.ok")
		}
		return resp, err
	}
}
