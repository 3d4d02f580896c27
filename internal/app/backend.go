package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"flowboard/internal/canvas"
	"flowboard/internal/config"
	"flowboard/internal/dbclient"
	"flowboard/internal/domain"
	"flowboard/internal/inbox"
	"flowboard/internal/secret"
	"flowboard/internal/service"
	"flowboard/internal/storage"
)

// DriverMemory keeps the revision counter in process memory only.
const DriverMemory = "memory"

// Backend is everything durable a host needs: the local SQLite database
// (snapshot history and approvals) and the key/value store holding the
// revision counter, which may live on a remote server.
type Backend struct {
	DB        *storage.DB // nil with the memory driver
	KV        domain.KVStore
	Snapshots domain.SnapshotStore // nil with the memory driver
	Approvals *storage.ApprovalStore

	remote dbclient.KV
}

// OpenBackend opens the stores selected by cfg.Store. A remote server
// without a configured password gets it from the keychain.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	return openBackend(ctx, cfg, secret.NewKeychainStore())
}

func openBackend(ctx context.Context, cfg *config.Config, secrets secret.SecretStore) (*Backend, error) {
	if cfg.Store.Driver == DriverMemory {
		return &Backend{KV: storage.NewMemoryKV()}, nil
	}

	db, err := storage.New(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	b := &Backend{
		DB:        db,
		Snapshots: storage.NewSnapshotStore(db),
		Approvals: storage.NewApprovalStore(db),
	}

	// The local file serves the key/value store unless another server is
	// configured.
	if cfg.Store.Driver == "" || (cfg.Store.Driver == dbclient.DriverSQLite && cfg.Store.DSN == "") {
		b.KV = storage.NewSettingsStore(db)
		return b, nil
	}

	remote, err := dbclient.Open(ctx, dbclient.Options{
		Driver:   cfg.Store.Driver,
		DSN:      cfg.Store.DSN,
		Host:     cfg.Store.Host,
		Port:     cfg.Store.Port,
		Database: cfg.Store.Database,
		Username: cfg.Store.Username,
		Password: storePassword(cfg, secrets),
		SSLMode:  cfg.Store.SSLMode,
		Table:    cfg.Store.Table,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	log.Printf("[EDITOR] revision counter stored in %s", cfg.Store.Driver)
	b.KV = remote
	b.remote = remote
	return b, nil
}

// storePassword returns the configured password, falling back to the
// secret stored under the server's StoreKey.
func storePassword(cfg *config.Config, secrets secret.SecretStore) string {
	if cfg.Store.Password != "" || secrets == nil {
		return cfg.Store.Password
	}
	v, err := secrets.Get(StoreSecretKey(cfg))
	if err != nil {
		log.Printf("[STORE] keychain lookup failed: %v", err)
		return ""
	}
	return string(v)
}

// StoreSecretKey is the keychain entry holding the password for cfg.Store.
func StoreSecretKey(cfg *config.Config) string {
	s := cfg.Store
	return secret.StoreKey(s.Driver, s.Username, s.Host, s.Port, s.Database)
}

// Editor builds an editor over the backend's stores.
func (b *Backend) Editor(cfg *config.Config, r canvas.Renderer, emitter service.EventEmitter) (*service.Editor, error) {
	return service.NewEditor(service.EditorOptions{
		Width:         float64(cfg.Canvas.Width),
		Height:        float64(cfg.Canvas.Height),
		Identity:      cfg.App.Identity,
		ProjectPrefix: cfg.App.ProjectPrefix,
		KV:            b.KV,
		Snapshots:     b.Snapshots,
		Renderer:      r,
		Emitter:       emitter,
	})
}

// Close releases every connection.
func (b *Backend) Close() {
	if b.remote != nil {
		b.remote.Close()
	}
	if b.DB != nil {
		b.DB.Close()
	}
}

// Background holds the optional workers attached to an editor.
type Background struct {
	autosave *service.Autosaver
	inbox    *service.InboxImporter
}

// StartBackground starts autosave and the inbox watcher as cfg asks.
// Autosave needs snapshot history and is skipped without it.
func StartBackground(ctx context.Context, cfg *config.Config, b *Backend, editor *service.Editor) (*Background, error) {
	bg := &Background{}
	if cfg.Autosave.Enabled && b.Snapshots != nil {
		bg.autosave = service.NewAutosaver(editor, cfg.Autosave.Schedule, cfg.Autosave.Keep)
		if err := bg.autosave.Start(ctx); err != nil {
			return nil, err
		}
	}
	if cfg.Watch.Enabled {
		w, err := service.WatchInbox(ctx, editor, cfg.Watch.Dir, inbox.DefaultDebounce)
		if err != nil {
			bg.Stop()
			return nil, err
		}
		bg.inbox = w
	}
	return bg, nil
}

// Stop stops the workers, waiting for a running autosave to finish.
func (bg *Background) Stop() {
	if bg.autosave != nil {
		bg.autosave.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		bg.autosave.WaitRunning(ctx)
		cancel()
	}
	if bg.inbox != nil {
		bg.inbox.Close()
	}
}
