package portfoliolive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

const Topic = "events"

var (
	// ErrInvalidInput marks a request the caller must fix, e.g. a missing client id.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorageUnavailable marks a failed read or write of a persisted record.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrConnectionDropped marks a live subscriber that could not be written to.
	ErrConnectionDropped = errors.New("connection dropped")
	// ErrRecordNotFound is returned when a record has never been saved.
	ErrRecordNotFound = errors.New("record not found")
)

func buildErrors(messages []api.Message) error {
	if len(messages) == 0 {
		return nil
	}
	lines := []string{}
	for _, msg := range messages {
		if msg.Location != nil {
			lines = append(lines, fmt.Sprintf(
				"%s:%v:%v: %s",
				msg.Location.File,
				msg.Location.Line,
				msg.Location.Column,
				msg.Text,
			))
		} else {
			lines = append(lines, msg.Text)
		}
	}
	return errors.New(strings.Join(lines, "\n"))
}
