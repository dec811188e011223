// Package parallel runs row bands of a frame on a fixed pool of
// goroutines.
//
// A frame's bands are claimed one at a time from a shared counter, so
// bands with many covered pixels do not hold up idle workers. Bands never
// overlap, so workers share the color and depth buffers without locking.
package parallel
