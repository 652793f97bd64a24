// Package stream fans committed price batches out to live subscribers.
//
// Each subscriber owns a bounded queue. A slow subscriber loses its oldest
// undelivered events instead of blocking the publisher, so the tick that
// produced a batch never waits on a websocket client.
package stream
