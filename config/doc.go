// Package config loads the settings of the tagcache service.
//
// Load layers three sources, later ones winning: the values from Default,
// an optional YAML, TOML or JSON file, and TAGCACHE_* environment
// variables. Nested keys map to env names by joining with underscores, so
// cache.default_ttl is read from TAGCACHE_CACHE_DEFAULT_TTL.
//
// Before the file is parsed, ${VAR} references in it are expanded from the
// environment. An unset variable is an error; write $$ for a literal $.
package config
