package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

// contentView is the wire shape of a content item; metadata is decoded inline.
type contentView struct {
	*entity.ContentItem
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

func viewOf(it *entity.ContentItem) contentView {
	v := contentView{ContentItem: it}
	if len(it.Metadata) > 0 && json.Valid(it.Metadata) {
		v.Metadata = it.Metadata
	}
	return v
}

func views(items []*entity.ContentItem) []contentView {
	out := make([]contentView, 0, len(items))
	for _, it := range items {
		out = append(out, viewOf(it))
	}
	return out
}

func str(req *structpb.Struct, key string) string {
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

func num(req *structpb.Struct, key string) int {
	return int(req.GetFields()[key].GetNumberValue())
}

func flag(req *structpb.Struct, key string, def bool) bool {
	v, ok := req.GetFields()[key]
	if !ok {
		return def
	}
	if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
		return def
	}
	return v.GetBoolValue()
}

func optStr(req *structpb.Struct, key string) *string {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

func requireID(req *structpb.Struct, key string) (uuid.UUID, error) {
	raw := str(req, key)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s must be a UUID", key)
	}
	return id, nil
}

func optDate(req *structpb.Struct, key string) (*time.Time, error) {
	raw := str(req, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("%s must be YYYY-MM-DD", key))
	}
	return &t, nil
}

func stringMap(req *structpb.Struct, key string) map[string]string {
	fields := req.GetFields()[key].GetStructValue().GetFields()
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v.GetStringValue()
	}
	return out
}
