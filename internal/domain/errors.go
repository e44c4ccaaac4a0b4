package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed is returned when the question source cannot produce a usable batch.
	ErrFetchFailed = errors.New("question fetch failed")
	// ErrEmptyBatch indicates the question source answered with zero questions.
	// It wraps ErrFetchFailed so callers handle both the same way.
	ErrEmptyBatch = fmt.Errorf("%w: empty question batch", ErrFetchFailed)
	// ErrPlaybackFailed indicates a sound cue could not be played.
	ErrPlaybackFailed = errors.New("sound playback failed")
	// ErrInvalidPlayer is returned when a session is started without a display name.
	ErrInvalidPlayer = errors.New("player display name is required")
	// ErrNotIdle is returned when a session is started while another one is loading or running.
	ErrNotIdle = errors.New("a quiz session is already in progress")
	// ErrNotAnswering is returned when an answer arrives outside the answering phase.
	ErrNotAnswering = errors.New("quiz session is not accepting answers")
	// ErrStaleAnswer is returned when an answer targets a question that is no longer current.
	ErrStaleAnswer = errors.New("answer does not target the current question")
	// ErrGameClosed is returned for any operation on a closed game.
	ErrGameClosed = errors.New("game is closed")
	// ErrNotFound is returned by stores when a key is absent.
	ErrNotFound = errors.New("key not found")
)
