// Package objstore provides existence, content, and write primitives against
// S3, used directly by test bodies and inside the matcher layer. No
// operation retries internally; callers own retry policy.
package objstore
