package http

import "time"

// RequestTimeout exposes the timeout resolution to the external tests.
func RequestTimeout(c *Client, req *Request) time.Duration {
	return c.requestTimeout(req)
}
