package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
	"github.com/noah-isme/lms-admin-gateway/internal/upstream"
	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

type fakeCall struct {
	Method string
	Path   string
	Query  url.Values
	Token  string
	Body   interface{}
}

type fakeResponse struct {
	body interface{}
	text string
	err  error
}

func reply(body interface{}) fakeResponse { return fakeResponse{body: body} }

func fail(err error) fakeResponse { return fakeResponse{err: err} }

// fakeAPI answers upstream calls from canned responses keyed by "METHOD path".
// A sequence is consumed in order and its last entry repeats.
type fakeAPI struct {
	mu        sync.Mutex
	responses map[string][]fakeResponse
	calls     []fakeCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{responses: map[string][]fakeResponse{}}
}

func (f *fakeAPI) on(method, path string, rs ...fakeResponse) *fakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = rs
	return f
}

func (f *fakeAPI) callsTo(method, path string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) do(ctx context.Context, auth upstream.Auth, method, path string, query url.Values, body interface{}) (fakeResponse, error) {
	var token string
	if auth == upstream.Bearer {
		t, err := upstream.TokenFrom(ctx)
		if err != nil {
			return fakeResponse{}, err
		}
		token = t
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeCall{Method: method, Path: path, Query: query, Token: token, Body: body})
	key := method + " " + path
	rs, ok := f.responses[key]
	if !ok || len(rs) == 0 {
		return fakeResponse{}, appErrors.UpstreamStatus(404, "Not Found")
	}
	r := rs[0]
	if len(rs) > 1 {
		f.responses[key] = rs[1:]
	}
	return r, r.err
}

func (f *fakeAPI) decode(r fakeResponse, dest interface{}) error {
	if dest == nil || r.body == nil {
		return nil
	}
	raw, err := json.Marshal(r.body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeAPI) GetJSON(ctx context.Context, auth upstream.Auth, path string, query url.Values, dest interface{}) error {
	r, err := f.do(ctx, auth, "GET", path, query, nil)
	if err != nil {
		return err
	}
	return f.decode(r, dest)
}

func (f *fakeAPI) PostJSON(ctx context.Context, auth upstream.Auth, path string, body, dest interface{}) error {
	r, err := f.do(ctx, auth, "POST", path, nil, body)
	if err != nil {
		return err
	}
	return f.decode(r, dest)
}

func (f *fakeAPI) PutJSON(ctx context.Context, auth upstream.Auth, path string, body, dest interface{}) error {
	r, err := f.do(ctx, auth, "PUT", path, nil, body)
	if err != nil {
		return err
	}
	return f.decode(r, dest)
}

func (f *fakeAPI) PostForm(ctx context.Context, auth upstream.Auth, path string, form url.Values, dest interface{}) error {
	r, err := f.do(ctx, auth, "POST", path, nil, form)
	if err != nil {
		return err
	}
	return f.decode(r, dest)
}

func (f *fakeAPI) GetText(ctx context.Context, auth upstream.Auth, path string) (string, error) {
	r, err := f.do(ctx, auth, "GET", path, nil, nil)
	if err != nil {
		return "", err
	}
	return r.text, nil
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func testControllerOptions() ControllerOptions {
	return ControllerOptions{PageSize: 10, RetryAttempts: 1, Sleep: noSleep}
}

func authed(token string) context.Context {
	return upstream.WithToken(context.Background(), token)
}

func studentPage(page, pages int, students ...models.Student) models.Page[models.Student] {
	return models.Page[models.Student]{Total: pages * 10, Page: page, Size: 10, Pages: pages, Items: students}
}
