//go:build embed
// +build embed

package portfoliolive

import (
	"io"
	"log"
)

func init() {
	log.Println("using embedded resources")
	DoEmbed = true
}

type noop struct{}

func (n *noop) Close() error {
	return nil
}

func StartWatching(_ EventPublisher) (io.Closer, error) {
	return &noop{}, nil
}
