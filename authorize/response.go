package authorize

import "net/http"

// Response is a transport-neutral descriptor of the authorization
// endpoint's answer: either a 302 redirect back to the client or a direct
// 400 body when no safe redirect target exists.
type Response struct {
	Status   int
	Location string // redirect target; empty for direct body responses
	Body     string
}

// Write renders the response onto an http.ResponseWriter.
func (r *Response) Write(w http.ResponseWriter) {
	if r.Location != "" {
		w.Header().Set("Location", r.Location)
	}
	if r.Body != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(r.Status)
	if r.Body != "" {
		_, _ = w.Write([]byte(r.Body))
	}
}
