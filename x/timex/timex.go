package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// NowSec returns Unix seconds as int64.
func NowSec() int64 { return time.Now().Unix() }
