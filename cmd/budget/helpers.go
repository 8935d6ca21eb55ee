package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-budget-must-balance/internal/common"
	"github.com/Veraticus/the-budget-must-balance/internal/config"
	"github.com/Veraticus/the-budget-must-balance/internal/ledger"
	"github.com/Veraticus/the-budget-must-balance/internal/session"
	"github.com/Veraticus/the-budget-must-balance/internal/storage"
)

// workspace is an open master file and the session over it.
type workspace struct {
	store   storage.Store
	session *session.Session
	folder  string
}

func (w *workspace) Close() error {
	return w.session.Close()
}

// openWorkspace resolves the work folder, opens the master file and loads
// the session. With create set, a missing master file is created first.
func openWorkspace(ctx context.Context, folder string, create bool) (*workspace, error) {
	settings := config.LoadWorkspace(viper.GetViper())
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	dir, err := settings.Folder(folder)
	if err != nil {
		return nil, common.NewUserError("no work folder; pass --folder or run 'budget workspace init <folder>'", err)
	}

	path := config.ResolveMasterPath(dir, storage.Extension(settings.Backend))
	if _, err := os.Stat(path); err != nil && !create {
		return nil, common.NewUserError(fmt.Sprintf("no master file in %s; run 'budget workspace init %s'", dir, dir), nil)
	}

	store, err := storage.Open(ctx, settings.Backend, path, time.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if !store.Exists() {
		if !create {
			_ = store.Close()
			return nil, common.NewUserError(fmt.Sprintf("no master file in %s; run 'budget workspace init %s'", dir, dir), nil)
		}
		if err := store.Create(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create master file: %w", err)
		}
	}

	sess := session.Open(ctx, store, time.Now)
	if sess.LoadErr != nil {
		common.LogWarn("Master file could not be read; showing empty tables and refusing to save", common.Fields{
			"path":  path,
			"error": sess.LoadErr.Error(),
		})
	}

	if err := config.RememberFolder(viper.GetViper(), dir); err != nil {
		common.LogWarn("Failed to remember work folder", common.Fields{"folder": dir, "error": err.Error()})
	}

	return &workspace{store: store, session: sess, folder: dir}, nil
}

// parseAssignments parses KEY=AMOUNT arguments.
func parseAssignments(args []string) (map[string]int64, error) {
	out := make(map[string]int64, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected NAME=AMOUNT", arg)
		}
		amount, err := ledger.ParseAmount(value)
		if err != nil {
			return nil, fmt.Errorf("invalid amount for %s: %w", key, err)
		}
		out[key] = amount
	}
	return out, nil
}

// parseIDs parses expense IDs given as arguments.
func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid expense ID %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func ptr[T any](v T) *T {
	return &v
}
