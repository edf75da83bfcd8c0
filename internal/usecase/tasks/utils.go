package tasks

import "time"

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func detailCacheKey(jobTaskID string) string {
	return "task_detail:" + jobTaskID
}
