package repository

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// STOMP commands used by the client
const (
	frameConnect     = "CONNECT"
	frameConnected   = "CONNECTED"
	frameSubscribe   = "SUBSCRIBE"
	frameUnsubscribe = "UNSUBSCRIBE"
	frameSend        = "SEND"
	frameMessage     = "MESSAGE"
	frameError       = "ERROR"
)

// StompFrame 一個 STOMP frame: command + headers + body
type StompFrame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// NewStompFrame create StompFrame
func NewStompFrame(command string, body []byte) *StompFrame {
	return &StompFrame{
		Command: command,
		Headers: map[string]string{},
		Body:    body,
	}
}

// Set set header value
func (f *StompFrame) Set(key, value string) *StompFrame {
	f.Headers[key] = value
	return f
}

// Encode 序列化成 wire format: COMMAND\nheaders\n\nbody\x00
func (f *StompFrame) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')
	for k, v := range f.Headers {
		buf.WriteString(k)
		buf.WriteByte(':')
		buf.WriteString(v)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// DecodeStompFrame 解析 wire format；heart-beat(僅換行)回傳 nil frame
func DecodeStompFrame(data []byte) (*StompFrame, error) {
	data = bytes.TrimRight(data, "\x00")
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	head, body, found := bytes.Cut(data, []byte("\n\n"))
	if !found {
		head = data
		body = nil
	}

	lines := strings.Split(string(head), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, errors.New("stomp frame missing command")
	}

	f := NewStompFrame(strings.TrimSpace(lines[0]), body)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed stomp header %q", line)
		}
		// 重複 header 以首個為準
		if _, exists := f.Headers[k]; !exists {
			f.Headers[k] = v
		}
	}
	return f, nil
}
