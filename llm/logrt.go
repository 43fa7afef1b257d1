package llm

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"

	"github.com/autostream-x/autostream-agent/logger"
)

// loggingRT dumps outbound requests and inbound responses at debug
// level when LLM_DEBUG=true. Bearer tokens are redacted.
type loggingRT struct{ base http.RoundTripper }

var authRe = regexp.MustCompile(`(?i)Authorization:\s*Bearer\s+[A-Za-z0-9\-\._~+/=]+`)

func (l *loggingRT) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.Component("llm.http")

	var reqDump []byte
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil }
		d, _ := httputil.DumpRequestOut(req, true)
		reqDump = d
	}
	safe := authRe.ReplaceAll(reqDump, []byte("Authorization: Bearer ***REDACTED***"))
	if len(safe) > 0 {
		log.Debugf("outbound %s %s\n%s", req.Method, req.URL.String(), safe)
	}

	resp, err := l.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp != nil && resp.Body != nil {
		b, _ := io.ReadAll(resp.Body)
		resp.Body = io.NopCloser(bytes.NewReader(b))
		d, _ := httputil.DumpResponse(resp, true)
		if len(d) > 4096 {
			d = append(d[:4096], []byte("\n... (truncated) ...")...)
		}
		log.Debugf("inbound %s %s\n%s", req.Method, req.URL.String(), d)
	}
	return resp, nil
}
