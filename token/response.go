// Package token implements the token endpoint of the OAuth2 protocol
// core: client authentication, grant dispatch for the authorization code,
// resource owner password, client credentials and refresh token grants,
// and rendering of both success and error responses as JSON.
package token

import "net/http"

// Response is a fully rendered token endpoint response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Write sends the response.
func (r *Response) Write(w http.ResponseWriter) error {
	for name, values := range r.Header {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}
