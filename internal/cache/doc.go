// Package cache provides a generic least-recently-used cache.
//
//	c := cache.New[string, *geom.Mesh](1024)
//	mesh := c.GetOrCreate(key, func() *geom.Mesh { return tessellate() })
//
// A capacity of 0 means unlimited. LRU is safe for concurrent use and must
// not be copied after creation.
package cache
