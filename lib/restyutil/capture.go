package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

func formatHeaders(headers http.Header) string {
	var out strings.Builder
	for key, values := range headers {
		for _, value := range values {
			fmt.Fprintf(&out, "%s: %s\n", key, value)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(contents)
}

func formatExchange(res *resty.Response) string {
	var out strings.Builder

	fmt.Fprintf(&out, "---- REQUEST ----\n\n%s %s\n\n", res.Request.Method, res.Request.URL)
	if res.Request.RawRequest != nil {
		out.WriteString(formatHeaders(res.Request.RawRequest.Header))
		out.WriteString("\n\n")
		out.WriteString(formatRequestBody(res.Request.RawRequest))
		out.WriteString("\n\n")
	}

	fmt.Fprintf(&out, "---- RESPONSE ----\n\n%s\n\n", res.Status())
	out.WriteString(formatHeaders(res.Header()))
	out.WriteString("\n\n")
	out.WriteString(res.String())

	return out.String()
}

// Capture hooks a resty client so every completed request gets written
// to output as a readable request/response transcript. Used by the
// debug flag, it is a no-op when output is nil.
func Capture(client *resty.Client, output Output) {
	if output == nil {
		return
	}

	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		output.Write(id, formatExchange(res))
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		id := strconv.FormatUint(atomic.AddUint64(&counter, 1), 10)
		output.Write(id, fmt.Sprintf(
			"---- REQUEST ----\n\n%s %s\n\n---- ERROR ----\n\n%s",
			req.Method, req.URL, err.Error(),
		))
	})
}
