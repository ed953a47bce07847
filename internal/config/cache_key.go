package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DuplicateActionKey returns the cache key guarding a repeated session action.
// fingerprint is the hex-encoded hash of (session_id, user_id, action).
func (r *CacheKeyStruct) DuplicateActionKey(fingerprint string) string {
	return fmt.Sprintf("dedup:%s", fingerprint)
}

// SessionDeadlineKey returns the cache key for a session's computed deadline.
func (r *CacheKeyStruct) SessionDeadlineKey(sessionID int64) string {
	return fmt.Sprintf("session:%d:deadline", sessionID)
}

// PaperPoolCountKey returns the cache key for a paper's candidate pool size.
func (r *CacheKeyStruct) PaperPoolCountKey(paperID int64) string {
	return fmt.Sprintf("paper:%d:pool_count", paperID)
}

var CacheKey = NewCacheKeyStruct()
