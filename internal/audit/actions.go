package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action tags. They are persisted in audit_logs.action and are the contract
// between the logger and the restore dispatch, so existing values must never
// be renamed.
const (
	ActionStartServer   = "startServer"
	ActionStopServer    = "stopServer"
	ActionRestartServer = "restartServer"

	ActionGetServerFileContents   = "getServerFileContents"
	ActionWriteServerFileContents = "writeServerFileContents"
	ActionDeleteServerFile        = "deleteServerFile"
	ActionRenameServerFile        = "renameServerFile"
	ActionCreateServerFolder      = "createServerFolder"

	ActionGetTemplateFileContents   = "getTemplateFileContents"
	ActionWriteTemplateFileContents = "writeTemplateFileContents"
	ActionDeleteTemplateFile        = "deleteTemplateFile"
	ActionRenameTemplateFile        = "renameTemplateFile"

	ActionScaleGroup  = "scale"
	ActionCreateGroup = "createGroup"
	ActionDeleteGroup = "deleteGroup"

	// RestorePrefix is prepended to the original action of a restore entry.
	RestorePrefix = "restore_"
)

// ContentBackup is the snapshot taken before a file is overwritten or deleted.
type ContentBackup struct {
	OriginalContent string `json:"originalContent"`
	FilePath        string `json:"filePath"`
}

// PathBackup is the snapshot taken before a file is renamed.
type PathBackup struct {
	OriginalPath string `json:"originalPath"`
}

// Target locates the resource a restorable action is about to change.
// ServerID is empty for template files.
type Target struct {
	ServerID string
	Path     string
}

// Replay carries what a revert needs besides the backup payload.
type Replay struct {
	ServerID string         // durable server id; empty for template actions
	Details  map[string]any // details of the original entry
}

var errMissingFilePath = errors.New("backup has no file path")

// restorable is the type-erased view of an action[B] held by the registry.
type restorable interface {
	serverScoped() bool
	capture(ctx context.Context, api AtlasAPI, t Target) (json.RawMessage, error)
	revert(ctx context.Context, api AtlasAPI, r Replay, raw json.RawMessage) error
}

// action binds a restorable action tag to its backup payload type B.
type action[B any] struct {
	server   bool
	snapshot func(ctx context.Context, api AtlasAPI, t Target) (B, error)
	undo     func(ctx context.Context, api AtlasAPI, r Replay, b B) error
}

func (a action[B]) serverScoped() bool { return a.server }

func (a action[B]) capture(ctx context.Context, api AtlasAPI, t Target) (json.RawMessage, error) {
	b, err := a.snapshot(ctx, api, t)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return raw, nil
}

func (a action[B]) revert(ctx context.Context, api AtlasAPI, r Replay, raw json.RawMessage) error {
	var b B
	if err := json.Unmarshal(raw, &b); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	return a.undo(ctx, api, r, b)
}

var registry = map[string]restorable{
	ActionWriteServerFileContents: action[ContentBackup]{
		server:   true,
		snapshot: snapshotServerContent,
		undo:     writeServerContent,
	},
	ActionDeleteServerFile: action[ContentBackup]{
		server:   true,
		snapshot: snapshotServerContent,
		undo:     writeServerContent,
	},
	ActionRenameServerFile: action[PathBackup]{
		server:   true,
		snapshot: snapshotPath,
		undo: func(ctx context.Context, api AtlasAPI, r Replay, b PathBackup) error {
			current, err := renamedPath(r.Details, b)
			if err != nil {
				return err
			}
			return api.RenameServerFile(ctx, r.ServerID, current, b.OriginalPath)
		},
	},
	ActionWriteTemplateFileContents: action[ContentBackup]{
		snapshot: snapshotTemplateContent,
		undo:     writeTemplateContent,
	},
	ActionDeleteTemplateFile: action[ContentBackup]{
		snapshot: snapshotTemplateContent,
		undo:     writeTemplateContent,
	},
	ActionRenameTemplateFile: action[PathBackup]{
		snapshot: snapshotPath,
		undo: func(ctx context.Context, api AtlasAPI, r Replay, b PathBackup) error {
			current, err := renamedPath(r.Details, b)
			if err != nil {
				return err
			}
			return api.RenameTemplateFile(ctx, current, b.OriginalPath)
		},
	},
}

// IsRestorable reports whether action has a registered revert.
func IsRestorable(action string) bool {
	_, ok := registry[action]
	return ok
}

// RestorableActions returns the registered action tags.
func RestorableActions() []string {
	out := make([]string, 0, len(registry))
	for a := range registry {
		out = append(out, a)
	}
	return out
}

func snapshotServerContent(ctx context.Context, api AtlasAPI, t Target) (ContentBackup, error) {
	content, err := api.GetServerFileContents(ctx, t.ServerID, t.Path)
	if err != nil {
		return ContentBackup{}, fmt.Errorf("fetch %s: %w", t.Path, err)
	}
	return ContentBackup{OriginalContent: content, FilePath: t.Path}, nil
}

func snapshotTemplateContent(ctx context.Context, api AtlasAPI, t Target) (ContentBackup, error) {
	content, err := api.GetTemplateFileContents(ctx, t.Path)
	if err != nil {
		return ContentBackup{}, fmt.Errorf("fetch template %s: %w", t.Path, err)
	}
	return ContentBackup{OriginalContent: content, FilePath: t.Path}, nil
}

func snapshotPath(_ context.Context, _ AtlasAPI, t Target) (PathBackup, error) {
	if t.Path == "" {
		return PathBackup{}, errors.New("no path to snapshot")
	}
	return PathBackup{OriginalPath: t.Path}, nil
}

func writeServerContent(ctx context.Context, api AtlasAPI, r Replay, b ContentBackup) error {
	if b.FilePath == "" {
		return errMissingFilePath
	}
	return api.WriteServerFileContents(ctx, r.ServerID, b.FilePath, b.OriginalContent)
}

func writeTemplateContent(ctx context.Context, api AtlasAPI, _ Replay, b ContentBackup) error {
	if b.FilePath == "" {
		return errMissingFilePath
	}
	return api.WriteTemplateFileContents(ctx, b.FilePath, b.OriginalContent)
}

// renamedPath is where the file was moved to by the original rename. It
// trusts details.newPath; a later rename of the same file makes the revert
// fail at the Atlas API.
func renamedPath(details map[string]any, b PathBackup) (string, error) {
	if b.OriginalPath == "" {
		return "", errors.New("backup has no original path")
	}
	newPath, _ := details["newPath"].(string)
	if newPath == "" {
		return "", errors.New("details have no newPath")
	}
	return newPath, nil
}

// ActionCategory is the coarse action filter offered by the query service.
type ActionCategory string

const (
	CategoryCreate ActionCategory = "create"
	CategoryRead   ActionCategory = "read"
	CategoryUpdate ActionCategory = "update"
	CategoryDelete ActionCategory = "delete"
)

var categoryPatterns = map[ActionCategory][]string{
	CategoryCreate: {"create%", "upload%", "start%"},
	CategoryRead:   {"get%", "list%", "read%", "download%"},
	CategoryUpdate: {"write%", "rename%", "move%", "restart%", "scale%"},
	CategoryDelete: {"delete%", "remove%", "stop%"},
}

// Patterns returns the SQL LIKE patterns of c. ok is false for unknown
// categories.
func (c ActionCategory) Patterns() (patterns []string, ok bool) {
	p, ok := categoryPatterns[ActionCategory(strings.ToLower(string(c)))]
	if !ok {
		return nil, false
	}
	return append([]string(nil), p...), true
}
