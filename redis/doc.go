// Package redis connects the service to Redis through go-redis and backs
// the shared login rate limit, so every instance behind a load balancer
// counts attempts against the same window.
//
// The component is optional: with redis.enabled false the server keeps its
// in-process limiter.
package redis
