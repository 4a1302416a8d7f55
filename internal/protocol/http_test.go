package protocol

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestReadRequestWithBody(t *testing.T) {
	raw := "POST /respuesta HTTP/1.1\r\nHost: localhost\r\nContent-Length: 1\r\nConnection: keep-alive\r\n\r\nA"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req == nil {
		t.Fatalf("expected request, got nil")
	}
	if req.Method != "POST" || req.Path != "/respuesta" {
		t.Fatalf("unexpected start line: %s %s", req.Method, req.Path)
	}
	if req.Body != "A" {
		t.Fatalf("expected body %q, got %q", "A", req.Body)
	}
	if req.Header("Content-Length") != "1" {
		t.Fatalf("expected case-insensitive header lookup, got %q", req.Header("Content-Length"))
	}
}

func TestReadRequestLowercasesMethod(t *testing.T) {
	raw := "get /estado HTTP/1.1\r\n\r\n"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.Method != "GET" {
		t.Fatalf("expected method normalized to GET, got %q", req.Method)
	}
	if req.Body != "" {
		t.Fatalf("expected empty body without Content-Length, got %q", req.Body)
	}
}

func TestReadRequestMalformedStartLine(t *testing.T) {
	for _, raw := range []string{"", "\r\n", "GARBAGE\r\n\r\n"} {
		req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
		if err != nil {
			t.Fatalf("malformed input %q must not error, got %v", raw, err)
		}
		if req != nil {
			t.Fatalf("malformed input %q must yield nil request, got %+v", raw, req)
		}
	}
}

func TestReadRequestTruncatedBody(t *testing.T) {
	raw := "POST /registro HTTP/1.1\r\nContent-Length: 10\r\n\r\nana"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.Body != "ana" {
		t.Fatalf("expected best-effort body %q, got %q", "ana", req.Body)
	}
}

func TestEncodeResponseHeaders(t *testing.T) {
	raw := EncodeResponse(200, "OK", "hola")
	text := string(raw)
	for _, want := range []string{
		"HTTP/1.1 200 OK\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"Content-Length: 4\r\n",
		"Connection: keep-alive\r\n",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("encoded response missing %q:\n%s", want, text)
		}
	}
	if !strings.HasSuffix(text, "\r\n\r\nhola") {
		t.Fatalf("body must follow blank line:\n%s", text)
	}
}

func TestResponseRoundTripMultibyte(t *testing.T) {
	body := "PREGUNTA:1/3\n¿Cuál es la capital de España?\nA) Madrid\nB) París\nC) Roma\nD) Berlín\n"
	raw := EncodeResponse(200, "OK", body)

	if want := []byte("Content-Length: " + strconv.Itoa(len(body))); !bytes.Contains(raw, want) {
		t.Fatalf("Content-Length must count UTF-8 bytes, not runes:\n%s", raw)
	}

	resp, err := ReadResponse(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp == nil {
		t.Fatalf("expected response, got nil")
	}
	if resp.Status != 200 || resp.Reason != "OK" {
		t.Fatalf("unexpected status line: %d %s", resp.Status, resp.Reason)
	}
	if resp.Body != body {
		t.Fatalf("body did not round-trip byte-exact:\nwant %q\ngot  %q", body, resp.Body)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	raw := EncodeRequest("POST", "/registro", "ñoño")
	req, err := ReadRequest(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("read request: %v", err)
	}
	if req.Method != "POST" || req.Path != "/registro" || req.Body != "ñoño" {
		t.Fatalf("round trip mismatch: %+v", req)
	}
}

func TestEncodeRequestWithoutBody(t *testing.T) {
	raw := string(EncodeRequest("GET", "/ranking", ""))
	if strings.Contains(raw, "Content-Length") {
		t.Fatalf("bodyless request must omit Content-Length:\n%s", raw)
	}
	if !strings.HasPrefix(raw, "GET /ranking HTTP/1.1\r\n") {
		t.Fatalf("unexpected start line:\n%s", raw)
	}
}

func TestReadResponseMalformed(t *testing.T) {
	for _, raw := range []string{"", "HTTP/1.1\r\n\r\n", "HTTP/1.1 abc OK\r\n\r\n"} {
		resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)))
		if err != nil {
			t.Fatalf("malformed input %q must not error, got %v", raw, err)
		}
		if resp != nil {
			t.Fatalf("malformed input %q must yield nil response, got %+v", raw, resp)
		}
	}
}

func TestKeepAliveSequentialRequests(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(EncodeRequest("GET", "/estado", ""))
	buf.Write(EncodeRequest("POST", "/respuesta", "B"))

	br := bufio.NewReader(&buf)
	first, err := ReadRequest(br)
	if err != nil || first == nil || first.Path != "/estado" {
		t.Fatalf("first request: %+v err=%v", first, err)
	}
	second, err := ReadRequest(br)
	if err != nil || second == nil || second.Path != "/respuesta" || second.Body != "B" {
		t.Fatalf("second request: %+v err=%v", second, err)
	}
	third, err := ReadRequest(br)
	if err != nil || third != nil {
		t.Fatalf("exhausted stream must yield nil, got %+v err=%v", third, err)
	}
}
