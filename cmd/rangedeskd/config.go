package main

import (
	"rangedesk-backend/lib/configutil"
	"rangedesk-backend/services/allocator"
)

type Config struct {
	Port      int                 `json:"port"`
	StaticDir string              `json:"static_dir"`
	Database  configutil.Database `json:"database"`
	Allocator allocator.Config    `json:"allocator"`
}
