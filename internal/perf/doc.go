// Package perf 提供热点端点的进程内加速设施：TTL+LRU 缓存、
// 端点耗时滑动窗口统计、响应瘦身与统一分页。
// 这些结构在同一进程内被所有请求共享，内部自带锁保护。
package perf
