package domain

import "errors"

var (
	// ErrNoData means the source failed or returned an empty batch.
	ErrNoData = errors.New("no articles available from source")
	// ErrTooShort marks content below the length or word floors.
	ErrTooShort = errors.New("content too short")
	// ErrAlreadyStored is returned when an article with the same URL exists.
	ErrAlreadyStored = errors.New("article already stored")
	// ErrEngine wraps summarization and translation failures.
	ErrEngine = errors.New("engine failure")
)
