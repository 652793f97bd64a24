// Package app owns the process-wide components: the storage pool, the
// upstream client, the tick scheduler, the live stream hub and the HTTP
// server. Close tears them down in dependency order.
package app
