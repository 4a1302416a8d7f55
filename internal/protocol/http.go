// Package protocol frames and unframes the game's HTTP/1.1-shaped wire
// messages. The format is line oriented: a start line, header lines, a blank
// line, then a body of exactly Content-Length bytes. There is no chunked
// encoding; a missing Content-Length means an empty body.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Request is a decoded inbound message.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// Header returns a header value by case-insensitive name.
func (r *Request) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// Response is a decoded outbound message (used by peers and tests).
type Response struct {
	Status  int
	Reason  string
	Headers map[string]string
	Body    string
}

// Header returns a header value by case-insensitive name.
func (r *Response) Header(name string) string {
	return r.Headers[strings.ToLower(name)]
}

// ReadRequest reads one request from the stream. It returns (nil, nil) when
// the stream ends or the start line is empty or malformed; the caller treats
// a nil request as a disconnect signal. I/O failures other than a clean EOF
// are returned as errors.
func ReadRequest(br *bufio.Reader) (*Request, error) {
	line, err := readLine(br)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if line == "" {
		return nil, nil
	}

	parts := strings.Split(line, " ")
	if len(parts) < 2 {
		return nil, nil
	}
	method := strings.ToUpper(parts[0])
	path := parts[1]

	headers, err := readHeaders(br)
	if err != nil {
		return nil, err
	}

	body, err := readBody(br, headers)
	if err != nil {
		return nil, err
	}

	return &Request{Method: method, Path: path, Headers: headers, Body: body}, nil
}

// ReadResponse is the symmetric operation for the initiating side of a
// connection: status line, headers, length-delimited body.
func ReadResponse(br *bufio.Reader) (*Response, error) {
	line, err := readLine(br)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	if line == "" {
		return nil, nil
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return nil, nil
	}
	status, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, nil
	}
	reason := ""
	if len(parts) > 2 {
		reason = parts[2]
	}

	headers, err := readHeaders(br)
	if err != nil {
		return nil, err
	}

	body, err := readBody(br, headers)
	if err != nil {
		return nil, err
	}

	return &Response{Status: status, Reason: reason, Headers: headers, Body: body}, nil
}

// EncodeResponse serializes a response. Content-Length is the UTF-8 byte
// length of the body, not the rune count.
func EncodeResponse(status int, reason, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "HTTP/1.1 %d %s\r\n", status, reason)
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&sb, "Content-Length: %d\r\n", len(body))
	sb.WriteString("Connection: keep-alive\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// EncodeRequest serializes a request. Bodyless requests carry no
// Content-Length header at all.
func EncodeRequest(method, path, body string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s HTTP/1.1\r\n", method, path)
	sb.WriteString("Host: localhost\r\n")
	if body != "" {
		sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		fmt.Fprintf(&sb, "Content-Length: %d\r\n", len(body))
	}
	sb.WriteString("Connection: keep-alive\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}

// Canned responses with the status texts peers match on.

func OK(body string) []byte         { return EncodeResponse(200, "OK", body) }
func BadRequest(body string) []byte { return EncodeResponse(400, "Bad Request", body) }
func Forbidden(body string) []byte  { return EncodeResponse(403, "Forbidden", body) }
func NotFound(body string) []byte   { return EncodeResponse(404, "Not Found", body) }

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readHeaders consumes header lines up to the blank separator. Names are
// lowercased; lines without a colon are skipped.
func readHeaders(br *bufio.Reader) (map[string]string, error) {
	headers := make(map[string]string)
	for {
		line, err := readLine(br)
		if err != nil {
			if err == io.EOF {
				return headers, nil
			}
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		sep := strings.Index(line, ":")
		if sep <= 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:sep]))
		value := strings.TrimSpace(line[sep+1:])
		headers[name] = value
	}
}

// readBody reads exactly Content-Length bytes, best effort: a stream that
// ends early yields whatever was read.
func readBody(br *bufio.Reader, headers map[string]string) (string, error) {
	raw, ok := headers["content-length"]
	if !ok {
		return "", nil
	}
	length, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || length <= 0 {
		return "", nil
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(br, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return string(buf[:n]), nil
	}
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}
