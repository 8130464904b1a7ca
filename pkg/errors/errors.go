package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("record was modified by another request, please reload and retry")

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")
