// Package codec reads and writes images for the evaluation engine: still
// images in the common raster formats, animated gif frames through Decoder
// and Encoder, and the png thumbnails stored in the cache.
package codec
