package config

// Version is the searchctl binary version.
// Set at build time via: -ldflags "-X github.com/lexisearch/lexisearch/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
