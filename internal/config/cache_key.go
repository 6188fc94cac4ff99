package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamQuestionsKey returns the cache key for an exam's sanitized question set
func (r *CacheKeyStruct) ExamQuestionsKey(examID string) string {
	return fmt.Sprintf("exam:%s:questions", examID)
}

// ExamFeedChannel returns the Redis PubSub channel for an exam's live submission feed
func (r *CacheKeyStruct) ExamFeedChannel(examID string) string {
	return fmt.Sprintf("exam:%s:feed", examID)
}

var CacheKey = NewCacheKeyStruct()
