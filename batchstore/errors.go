package batchstore

import "errors"

var (
	ErrBlobNotFound    = errors.New("blob not found")
	ErrBlobExists      = errors.New("blob already exists")
	ErrNotBatchDir     = errors.New("the path is not a batch directory")
	ErrCorruptMetadata = errors.New("the stored batch metadata could not be decoded")
)
