package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/vectordotdev/vector-sub015/internal/corerr"
	"github.com/vectordotdev/vector-sub015/internal/reloadlock"
)

// ComponentReloader rebuilds the named running components to match the new
// document. It is supplied by internal/runtime, which owns the live
// topology; ReloadCoordinator only orchestrates the phases around it.
type ComponentReloader interface {
	ReloadComponents(ctx context.Context, names []string, doc *Document) error
	Healthcheck(ctx context.Context) error
}

// ReloadCoordinator runs the teacher's own six-phase reload pipeline
// (load&parse, validate, diff, atomic apply, component reload, healthcheck)
// against a live Document, rolling back to the previous generation if a
// later phase fails.
//
// A Manager is optional: when set, each reload is additionally serialized
// across replicas sharing the same Redis instance, so a SIGHUP fanned out
// to every replica at once doesn't have them racing each other's
// config-file reads.
type ReloadCoordinator struct {
	loader   *Loader
	reloader ComponentReloader
	lockMgr  *reloadlock.Manager
	lockName string
	log      *slog.Logger

	current *Document
	hash    string
	version int
}

// NewReloadCoordinator wires a coordinator around an already-loaded initial
// document.
func NewReloadCoordinator(loader *Loader, reloader ComponentReloader, initial *Document, log *slog.Logger) *ReloadCoordinator {
	if log == nil {
		log = slog.Default()
	}
	return &ReloadCoordinator{
		loader:   loader,
		reloader: reloader,
		lockName: "reload",
		log:      log,
		current:  initial,
		hash:     initial.Hash(),
		version:  1,
	}
}

// WithDistributedLock enables cross-replica serialization of ReloadFromFile
// via the given lock manager.
func (c *ReloadCoordinator) WithDistributedLock(mgr *reloadlock.Manager) *ReloadCoordinator {
	c.lockMgr = mgr
	return c
}

// Current returns the document currently in effect.
func (c *ReloadCoordinator) Current() *Document { return c.current }

// ReloadFromFile re-parses path and, if it differs from the current
// document, validates, diffs, applies and reloads affected components,
// rolling back on any failure from apply onward.
func (c *ReloadCoordinator) ReloadFromFile(ctx context.Context, path string) error {
	start := time.Now()
	log := c.log.With("phase", "reload")

	if c.lockMgr != nil {
		lock, ok, err := c.lockMgr.Acquire(ctx, c.lockName, 30*time.Second)
		if err != nil {
			return corerr.Wrap(corerr.KindShutdown, err, "acquire reload lock")
		}
		if !ok {
			log.Info("reload already in progress on another replica, skipping")
			return nil
		}
		defer lock.Release(ctx)
	}

	// Phase 1: load & parse.
	next, err := c.loader.LoadFile(path)
	if err != nil {
		log.Error("phase 1 load failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return err
	}
	nextHash := next.Hash()
	if nextHash == c.hash {
		log.Info("no config changes detected, skipping reload")
		return nil
	}

	// Phase 2: validate.
	if errs := Validate(next); len(errs) > 0 {
		log.Error("phase 2 validate failed", "errors", len(errs), "duration_ms", time.Since(start).Milliseconds())
		return errs[0]
	}

	// Phase 3: diff.
	diff := DiffDocuments(c.current, next)
	if diff.Empty() {
		log.Info("document hash changed but no component diff found, applying version bump only")
	}
	affected := diff.AffectedComponents()

	// Phase 4: atomic apply.
	previous, previousHash, previousVersion := c.current, c.hash, c.version
	c.current, c.hash, c.version = next, nextHash, c.version+1
	log.Info("phase 4 applied new config", "version", c.version, "affected", len(affected))

	// Phase 5: component reload.
	if c.reloader != nil && len(affected) > 0 {
		if err := c.reloader.ReloadComponents(ctx, affected, next); err != nil {
			log.Error("phase 5 component reload failed, rolling back", "error", err)
			c.current, c.hash, c.version = previous, previousHash, previousVersion
			return corerr.Wrap(corerr.KindShutdown, err, "reload components")
		}
	}

	// Phase 6: healthcheck.
	if c.reloader != nil {
		if err := c.reloader.Healthcheck(ctx); err != nil {
			log.Error("phase 6 healthcheck failed, rolling back", "error", err)
			c.current, c.hash, c.version = previous, previousHash, previousVersion
			if rbErr := c.reloader.ReloadComponents(ctx, affected, previous); rbErr != nil {
				log.Error("rollback reload also failed", "error", rbErr)
			}
			return corerr.Wrap(corerr.KindBuildHealthcheck, err, "post-reload healthcheck")
		}
	}

	log.Info("reload complete", "version", c.version, "duration_ms", time.Since(start).Milliseconds())
	return nil
}
