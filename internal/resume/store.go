// Package resume owns the current-state resume rows and the append-only
// revision ledger behind them. Every mutation runs inside one transaction
// that snapshots the prior state, applies the change and advances the
// version counter by exactly one, so the ledger is always a gapless history
// of versions 1..current-1.
package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"resumehub/internal/database"
	"resumehub/internal/pagination"
)

// ImprovedMarker is the deterministic suffix appended by Improve.
const ImprovedMarker = " [Improved]"

// mutateRetries bounds how often a mutation is retried after losing a
// version race to a concurrent writer.
const mutateRetries = 3

// Patch carries the fields of an update; nil fields are left unchanged.
type Patch struct {
	Title   *string
	Content *string
}

// Store provides ownership-checked CRUD over resumes and their revisions.
// A resume is visible only to its owner; lookups for other users' ids are
// reported as ErrNotFound.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store on the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new resume at version 1. No revision is written: there is
// no prior state to snapshot yet.
func (s *Store) Create(ctx context.Context, owner *database.User, title, content string) (*database.Resume, error) {
	r := database.Resume{
		Title:   title,
		Content: content,
		UserID:  owner.ID,
		Version: 1,
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}
	return &r, nil
}

// Get returns the caller's resume by id.
func (s *Store) Get(ctx context.Context, owner *database.User, id uint) (*database.Resume, error) {
	var r database.Resume
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, owner.ID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load resume: %w", err)
	}
	return &r, nil
}

// List returns one page of the caller's resumes, newest id first, optionally
// filtered by a case-insensitive substring match on the title.
func (s *Store) List(ctx context.Context, owner *database.User, query string, page, perPage int) (pagination.Page[database.Resume], error) {
	page, perPage = pagination.Normalize(page, perPage)

	scope := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("user_id = ?", owner.ID)
	if query != "" {
		scope = scope.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	}

	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return pagination.Page[database.Resume]{}, fmt.Errorf("count resumes: %w", err)
	}

	var items []database.Resume
	err := scope.Session(&gorm.Session{}).
		Order("id DESC").
		Limit(perPage).
		Offset(pagination.Offset(page, perPage)).
		Find(&items).Error
	if err != nil {
		return pagination.Page[database.Resume]{}, fmt.Errorf("list resumes: %w", err)
	}

	return pagination.NewPage(items, page, perPage, total), nil
}

// Update snapshots the resume's current state into the ledger, applies the
// patch and bumps the version. An empty patch still snapshots and
// increments.
func (s *Store) Update(ctx context.Context, owner *database.User, id uint, patch Patch) (*database.Resume, error) {
	return s.mutate(ctx, owner, id, func(r *database.Resume) {
		if patch.Title != nil {
			r.Title = *patch.Title
		}
		if patch.Content != nil {
			r.Content = *patch.Content
		}
	})
}

// Improve runs the same snapshot-then-increment transaction as Update with a
// fixed content transformation; the title is untouched.
func (s *Store) Improve(ctx context.Context, owner *database.User, id uint) (*database.Resume, error) {
	return s.mutate(ctx, owner, id, func(r *database.Resume) {
		r.Content += ImprovedMarker
	})
}

// Delete removes the resume together with its entire revision history. The
// cascade is explicit so it holds even without a database-declared one.
func (s *Store) Delete(ctx context.Context, owner *database.User, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r database.Resume
		if err := tx.Where("id = ? AND user_id = ?", id, owner.ID).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load resume: %w", err)
		}

		if err := tx.Where("resume_id = ?", r.ID).Delete(&database.ResumeRevision{}).Error; err != nil {
			return fmt.Errorf("delete revisions: %w", err)
		}
		if err := tx.Delete(&database.Resume{}, r.ID).Error; err != nil {
			return fmt.Errorf("delete resume: %w", err)
		}
		return nil
	})
}

// ListHistory returns one page of the resume's revisions, newest version
// first. The resume itself must exist and belong to the caller.
func (s *Store) ListHistory(ctx context.Context, owner *database.User, id uint, page, perPage int) (pagination.Page[database.ResumeRevision], error) {
	page, perPage = pagination.Normalize(page, perPage)

	var owned int64
	err := s.db.WithContext(ctx).
		Model(&database.Resume{}).
		Where("id = ? AND user_id = ?", id, owner.ID).
		Count(&owned).Error
	if err != nil {
		return pagination.Page[database.ResumeRevision]{}, fmt.Errorf("check resume: %w", err)
	}
	if owned == 0 {
		return pagination.Page[database.ResumeRevision]{}, ErrNotFound
	}

	scope := s.db.WithContext(ctx).
		Model(&database.ResumeRevision{}).
		Where("resume_id = ?", id)

	var total int64
	if err := scope.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return pagination.Page[database.ResumeRevision]{}, fmt.Errorf("count revisions: %w", err)
	}

	var items []database.ResumeRevision
	err = scope.Session(&gorm.Session{}).
		Order("version DESC").
		Limit(perPage).
		Offset(pagination.Offset(page, perPage)).
		Find(&items).Error
	if err != nil {
		return pagination.Page[database.ResumeRevision]{}, fmt.Errorf("list revisions: %w", err)
	}

	return pagination.NewPage(items, page, perPage, total), nil
}

// mutate runs apply under the snapshot-and-increment protocol. A lost
// version race rolls the transaction back in full and retries on a fresh
// read, so the second of two concurrent writers always observes the first
// writer's result as its own prior state.
func (s *Store) mutate(ctx context.Context, owner *database.User, id uint, apply func(r *database.Resume)) (*database.Resume, error) {
	for attempt := 0; attempt < mutateRetries; attempt++ {
		updated, err := s.tryMutate(ctx, owner, id, apply)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, errVersionConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("update resume %d: retries exhausted under concurrent writes", id)
}

func (s *Store) tryMutate(ctx context.Context, owner *database.User, id uint, apply func(r *database.Resume)) (*database.Resume, error) {
	var out database.Resume

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current database.Resume
		if err := tx.Where("id = ? AND user_id = ?", id, owner.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load resume: %w", err)
		}

		// Snapshot the pre-mutation state. The unique (resume_id, version)
		// index turns a racing writer's duplicate snapshot into a conflict.
		rev := database.ResumeRevision{
			ResumeID: current.ID,
			Version:  current.Version,
			Content:  current.Content,
		}
		if err := tx.Create(&rev).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errVersionConflict
			}
			return fmt.Errorf("append revision: %w", err)
		}

		next := current
		apply(&next)

		// Compare-and-increment: only advance the row if nobody committed a
		// newer version since our read.
		res := tx.Model(&database.Resume{}).
			Where("id = ? AND version = ?", current.ID, current.Version).
			Updates(map[string]any{
				"title":   next.Title,
				"content": next.Content,
				"version": current.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("advance resume: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		if err := tx.First(&out, current.ID).Error; err != nil {
			return fmt.Errorf("reload resume: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
