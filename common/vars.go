package common

// Version is overridden at build time with -ldflags "-X github.com/ruteri/wireserver-ready-agent/common.Version=...".
var Version = "dev"
