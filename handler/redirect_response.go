package handler

import "net/http"

type redirectResponse struct {
	url    string
	status int
}

func (r redirectResponse) Render(w http.ResponseWriter, req *http.Request) error {
	http.Redirect(w, req, r.url, r.status)
	return nil
}

// Redirect creates a 302 Found redirect response.
func Redirect(url string) Response {
	return redirectResponse{url: url, status: http.StatusFound}
}

// RedirectWithStatus creates a redirect response with a custom status code.
func RedirectWithStatus(url string, status int) Response {
	return redirectResponse{url: url, status: status}
}
