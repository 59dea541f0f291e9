package curlexport

import "testing"

func TestCommandIncludesMethodURLHeadersAndBody(t *testing.T) {
	req := Request{
		Method:  "POST",
		URL:     "http://svc.test/login",
		Headers: [][2]string{{"Content-Type", "application/json"}},
		Body:    `{"u":"a"}`,
	}
	got := Command(req)
	want := `curl -X POST 'http://svc.test/login' -H 'Content-Type: application/json' -d '{"u":"a"}'`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommandOmitsBodyWhenEmpty(t *testing.T) {
	req := Request{Method: "GET", URL: "http://svc.test/health"}
	got := Command(req)
	want := "curl -X GET 'http://svc.test/health'"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommandEscapesSingleQuotesInBody(t *testing.T) {
	req := Request{Method: "POST", URL: "http://svc.test", Body: "it's a test"}
	got := Command(req)
	if got != `curl -X POST 'http://svc.test' -d 'it'\''s a test'` {
		t.Errorf("unexpected escaping: %q", got)
	}
}
