package utils

import (
	"bufio"
	"io"
	"strings"
)

// ReadLines reads r line by line on a goroutine and sends each line without
// its line ending. The channel is closed at EOF or on a read error.
func ReadLines(r io.Reader) <-chan string {
	lines := make(chan string)
	in := bufio.NewReader(r)
	go func() {
		defer close(lines)
		for {
			line, err := in.ReadString('\n')
			if line != "" || err == nil {
				lines <- strings.TrimRight(line, "\r\n")
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}
