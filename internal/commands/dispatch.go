package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tskpay/tskpay-core/internal/record"
)

// request carries the union of every command's arguments, keyed the way
// the desktop shell sends them.
type request struct {
	Table     string          `json:"table"`
	ID        string          `json:"id"`
	Data      json.RawMessage `json:"data"`
	MemberID  string          `json:"memberId"`
	ParentIDs []string        `json:"parentIds"`
	ParentID  string          `json:"parentId"`
	Path      string          `json:"path"`
}

// ExportResult is the response of export_database.
type ExportResult struct {
	Path string `json:"path"`
}

// ImportResult is the response of import_database.
type ImportResult struct {
	BackupPath string `json:"backupPath"`
}

type handler func(ctx context.Context, s *Service, req request) (any, error)

var handlers = map[string]handler{
	"db_init": func(ctx context.Context, s *Service, _ request) (any, error) {
		return s.Init(ctx)
	},
	"db_get_all": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("table", req.Table); err != nil {
			return nil, err
		}
		return s.List(ctx, req.Table)
	},
	"db_get_by_id": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("table", req.Table); err != nil {
			return nil, err
		}
		return s.Get(ctx, req.Table, req.ID)
	},
	"db_create": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("table", req.Table); err != nil {
			return nil, err
		}
		rec, err := decodeData(req.Data)
		if err != nil {
			return nil, err
		}
		return s.Create(ctx, req.Table, rec)
	},
	"db_update": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("table", req.Table); err != nil {
			return nil, err
		}
		rec, err := decodeData(req.Data)
		if err != nil {
			return nil, err
		}
		return nil, s.Update(ctx, req.Table, req.ID, rec)
	},
	"db_delete": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("table", req.Table); err != nil {
			return nil, err
		}
		return nil, s.Delete(ctx, req.Table, req.ID)
	},
	"db_get_member_parents": func(ctx context.Context, s *Service, req request) (any, error) {
		return s.GetMemberParents(ctx, req.MemberID)
	},
	"db_set_member_parents": func(ctx context.Context, s *Service, req request) (any, error) {
		return nil, s.SetMemberParents(ctx, req.MemberID, req.ParentIDs)
	},
	"db_get_parent_members": func(ctx context.Context, s *Service, req request) (any, error) {
		return s.GetParentMembers(ctx, req.ParentID)
	},
	"export_database": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("path", req.Path); err != nil {
			return nil, err
		}
		path, err := s.ExportDatabase(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		return ExportResult{Path: path}, nil
	},
	"import_database": func(ctx context.Context, s *Service, req request) (any, error) {
		if err := require("path", req.Path); err != nil {
			return nil, err
		}
		backupPath, err := s.ImportDatabase(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		return ImportResult{BackupPath: backupPath}, nil
	},
}

// Commands returns the names Dispatch accepts, sorted.
func Commands() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named command with JSON arguments and returns the
// JSON-encoded result. Commands without a result return "null".
//
// Returns:
//   - []byte: JSON result
//   - error: ErrUnknownCommand, ErrInvalidPayload, or the operation's error
func (s *Service) Dispatch(ctx context.Context, name string, payload []byte) ([]byte, error) {
	h, ok := handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	var req request
	if len(bytes.TrimSpace(payload)) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}

	result, err := h(ctx, s, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding %s result: %w", name, err)
	}
	return out, nil
}

func require(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidPayload, field)
	}
	return nil
}

// decodeData decodes the data argument keeping the integer/real distinction.
func decodeData(raw json.RawMessage) (record.Record, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: data is required", ErrInvalidPayload)
	}
	rec, err := record.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return rec, nil
}
