package common

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// StopList is a set of lower-cased words excluded from keyword extraction.
type StopList map[string]struct{}

// LoadStopList reads a stop list from a file, one word per line.
func LoadStopList(path string) (StopList, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stop list %s: %w", path, err)
	}
	defer fp.Close()
	return ReadStopList(fp)
}

// ReadStopList reads a stop list from a reader, one word per line.
// Comparison is lower-cased; blank lines are skipped.
func ReadStopList(r io.Reader) (StopList, error) {
	list := make(StopList)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		list[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stop list: %w", err)
	}
	return list, nil
}

// Contains reports whether word is stop-listed. Comparison is lower-cased.
func (s StopList) Contains(word string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(word))]
	return ok
}
