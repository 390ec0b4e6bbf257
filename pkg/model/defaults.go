package model

import (
	"time"
)

const (
	DefaultServerPort      = 8080
	DefaultUserAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
	DefaultFetchTimeout    = 60 * time.Second
	DefaultRefreshSchedule = "@every 2h"
	DefaultConcurrency     = 4
	DefaultEpisodesLimit   = 20
	DefaultLogMaxSize      = 50 // megabytes
	DefaultLogMaxAge       = 30 // days
	DefaultLogMaxBackups   = 7
)
