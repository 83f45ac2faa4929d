package httpserver

import (
	"strconv"
	"strings"
)

// Method is an HTTP request method the server can route on.
type Method uint8

const (
	MethodGet Method = iota + 1
	MethodPost
)

func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

func (m Method) valid() bool { return m == MethodGet || m == MethodPost }

// Status is an HTTP status code. Any value is accepted.
type Status uint32

// Response is what a Handler returns: a status and optional UTF-8 content.
// Headers other than Content-Length are not supported.
type Response struct {
	status     Status
	content    string
	hasContent bool
}

// NewResponse returns a Response with the given status and no content.
func NewResponse(status Status) Response {
	return Response{status: status}
}

// WithContent returns a copy of r carrying content.
func (r Response) WithContent(content string) Response {
	r.content = content
	r.hasContent = true
	return r
}

// Status returns the response status.
func (r Response) Status() Status { return r.status }

// Content returns the response content and whether any was set.
func (r Response) Content() (string, bool) { return r.content, r.hasContent }

// String renders the response exactly as it is written to the connection.
func (r Response) String() string {
	var b strings.Builder
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.FormatUint(uint64(r.status), 10))
	b.WriteString("\r\n")
	if r.hasContent {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(r.content)))
		b.WriteString("\r\n\r\n")
		b.WriteString(r.content)
		return b.String()
	}
	b.WriteString("\r\n")
	return b.String()
}

const notFoundPage = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <title>Hello!</title>
  </head>
  <body>
    <h1>Oops!</h1>
    <p>Sorry, I don't know what you're asking for.</p>
  </body>
</html>
`

// NotFound is the response sent when no handle matches a request.
func NotFound() Response {
	return NewResponse(404).WithContent(notFoundPage)
}
