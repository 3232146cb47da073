// Package config loads the pacstage configuration file.
//
// The file lives at $XDG_CONFIG_HOME/pacstage/config.toml and is optional.
// Every key has a default; see [Default]. Two environment variables
// override the file:
//
//	PACSTAGE_REDIS_ADDR   share the metadata cache through Redis
//	PACSTAGE_AUR          enable or disable AUR lookups (true/false)
//
// A complete file:
//
//	aur = true
//	workers = 20
//	max_depth = 50
//	arch = "x86_64"
//
//	[download]
//	enabled = true
//	mirrors = ["https://mirror.example.org/manjaro"]
//	branch = "stable"
//	extensions = [".tar.zst", ".tar.xz"]
//	probe_timeout = "3s"
//	timeout = "30m"
//
//	[cache]
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//	redis_db = 0
//
//	[pacman]
//	conf = "/etc/pacman.conf"
//
//	[server]
//	addr = "127.0.0.1:8080"
package config
