package build

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/sirupsen/logrus"

	"bakery/types"
)

// message is a single line of the daemon's build output.
type message struct {
	Stream string
	Status string
	Error  string
	Aux    string
}

func parseMessage(line []byte) message {
	var m message

	if val, err := jsonparser.GetString(line, "stream"); err == nil {
		m.Stream = val
	}
	if val, err := jsonparser.GetString(line, "status"); err == nil {
		m.Status = val
	}
	if val, err := jsonparser.GetString(line, "error"); err == nil {
		m.Error = val
	}
	if val, err := jsonparser.GetString(line, "aux", "ID"); err == nil {
		m.Aux = val
	}

	return m
}

// stream consumes the build response until EOF or an error record. It
// returns the image id from the trailing aux record when the daemon sends
// one.
func (b *builder) stream(log logrus.FieldLogger, id types.ID, recipeName string, body io.Reader) (string, error) {
	var imageID string

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		msg := parseMessage(line)

		if text := strings.TrimSpace(msg.Stream); text != "" {
			log.Debug(text)
		}
		if msg.Status != "" {
			log.Debug(msg.Status)
		}
		if msg.Aux != "" {
			imageID = msg.Aux
		}

		// scanner reuses its buffer.
		raw := make([]byte, len(line))
		copy(raw, line)

		b.publish(types.DockerEvent{
			Job:    id,
			Recipe: recipeName,
			Stream: msg.Stream,
			Raw:    raw,
		})

		if msg.Error != "" {
			log.WithField("daemon", msg.Error).Error("build failed")
			return "", fmt.Errorf("build: %v", msg.Error)
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return imageID, nil
}
