// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package visit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/ashaassist/internal/platform/constants"
)

// CachedRepository is a read-through Redis cache in front of a [Repository].
//
// Only FindByID is cached. MarkVerified writes through to the store and then
// drops the cached entry, so a verification is visible to the next read. A
// cached copy may lag the store; callers must not derive writes from it. Redis
// failures degrade to the underlying store.
type CachedRepository struct {
	Repository

	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedRepository wraps a repository with a Redis cache.
func NewCachedRepository(next Repository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRepository{Repository: next, client: client, ttl: ttl, logger: logger}
}

// cacheEntry is the serialized form of a Visit, including the fields
// hidden from API views.
type cacheEntry struct {
	ID            int64      `json:"id"`
	OwnerID       int64      `json:"owner_id"`
	OwnerUsername string     `json:"owner_username"`
	OwnerFullName string     `json:"owner_full_name"`
	PatientID     int64      `json:"patient_id"`
	PatientPhone  string     `json:"patient_phone"`
	PatientName   string     `json:"patient_name"`
	OTPCode       string     `json:"otp_code"`
	OTPExpiresAt  time.Time  `json:"otp_expires_at"`
	IsVerified    bool       `json:"is_verified"`
	VerifiedAt    *time.Time `json:"verified_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func cacheKey(id int64) string {
	return constants.RedisPrefixVisit + strconv.FormatInt(id, 10)
}

/*
FindByID serves the visit from Redis when present, loading and caching it otherwise.

Returns:
  - *Visit: Hydrated entity
  - error: dberr.ErrNotFound or store errors (absence is never cached)
*/
func (repository *CachedRepository) FindByID(ctx context.Context, id int64) (*Visit, error) {
	key := cacheKey(id)

	// 1. Cache lookup
	payload, err := repository.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if jsonErr := json.Unmarshal(payload, &entry); jsonErr == nil {
			return entry.visit(), nil
		}
		repository.logger.WarnContext(ctx, "visit_cache_corrupt_entry", slog.Int64("visit_id", id))
	case !errors.Is(err, redis.Nil):
		repository.logger.WarnContext(ctx, "visit_cache_get_failed", slog.Any("error", err))
	}

	// 2. Store lookup
	v, err := repository.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Populate
	if encoded, jsonErr := json.Marshal(newCacheEntry(v)); jsonErr == nil {
		if setErr := repository.client.Set(ctx, key, encoded, repository.ttl).Err(); setErr != nil {
			repository.logger.WarnContext(ctx, "visit_cache_set_failed", slog.Any("error", setErr))
		}
	}

	return v, nil
}

/*
MarkVerified writes through and invalidates the cached entry.

The entry is dropped even when the store reports the visit as already
verified, since the caller then acted on a stale copy.
*/
func (repository *CachedRepository) MarkVerified(ctx context.Context, id int64, verifiedAt time.Time) (bool, error) {
	transitioned, err := repository.Repository.MarkVerified(ctx, id, verifiedAt)
	if err != nil {
		return false, err
	}

	if err := repository.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		repository.logger.WarnContext(ctx, "visit_cache_invalidate_failed",
			slog.Int64("visit_id", id),
			slog.Any("error", err),
		)
	}

	return transitioned, nil
}

func newCacheEntry(v *Visit) cacheEntry {
	return cacheEntry{
		ID:            v.ID,
		OwnerID:       v.OwnerID,
		OwnerUsername: v.OwnerUsername,
		OwnerFullName: v.OwnerFullName,
		PatientID:     v.PatientID,
		PatientPhone:  v.PatientPhone,
		PatientName:   v.PatientName,
		OTPCode:       v.OTPCode,
		OTPExpiresAt:  v.OTPExpiresAt,
		IsVerified:    v.IsVerified,
		VerifiedAt:    v.VerifiedAt,
		CreatedAt:     v.CreatedAt,
	}
}

func (entry cacheEntry) visit() *Visit {
	return &Visit{
		ID:            entry.ID,
		OwnerID:       entry.OwnerID,
		OwnerUsername: entry.OwnerUsername,
		OwnerFullName: entry.OwnerFullName,
		PatientID:     entry.PatientID,
		PatientPhone:  entry.PatientPhone,
		PatientName:   entry.PatientName,
		OTPCode:       entry.OTPCode,
		OTPExpiresAt:  entry.OTPExpiresAt,
		IsVerified:    entry.IsVerified,
		VerifiedAt:    entry.VerifiedAt,
		CreatedAt:     entry.CreatedAt,
	}
}
