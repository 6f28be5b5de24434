// Package loader downloads the deck document progressively.
//
// A Loader pulls the document through a Source reader in arrival order,
// reports fractional progress after every chunk and materializes the bytes
// once, when the stream ends. Network failures end the load with a single
// user-facing message; retrying is left to the caller.
//
// Sources are picked by locator scheme: http(s) URLs use HTTPSource and
// s3://bucket/key locators use S3Source.
package loader
