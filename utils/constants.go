// File: utils/constants.go
package utils

// SessionCachePrefix is the prefix used for Redis conversation session keys.
const SessionCachePrefix = "chat:session:"

// AnonymousUser keys preference summaries for sessions that never gave a name.
const AnonymousUser = "anonymous"
