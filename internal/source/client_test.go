package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/exec", nil, zap.NewNop(), append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient("/exec", nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewClient("ftp://host/exec", nil, zap.NewNop())
	assert.Error(t, err)
}

func TestRequestURLCacheBusting(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	c, err := NewClient("https://script.example.com/exec?sheet=main", nil, zap.NewNop(), WithClock(func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}))
	require.NoError(t, err)

	first, err := url.Parse(c.RequestURL())
	require.NoError(t, err)
	second, err := url.Parse(c.RequestURL())
	require.NoError(t, err)

	assert.Equal(t, "main", first.Query().Get("sheet"))
	assert.Equal(t, strconv.FormatInt(1700000000001, 10), first.Query().Get(CacheBustParam))
	assert.NotEqual(t, first.Query().Get(CacheBustParam), second.Query().Get(CacheBustParam))
	assert.Equal(t, "/exec", first.Path)
}

func TestFetchSuccess(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [
			{"Designação": "D1", "Responsável(is)": "Ana", "Status (Mês Atual)": "Entregue",
			 "Status (Próximo Mês)": "Pendente", "Link do Último Envio": {"text": "Relatório", "url": "http://x"}},
			{"Designação": "D2"}
		]}`))
	})

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "D1", records[0].Designation)
	assert.Equal(t, "http://x", records[0].Link.URL)
	assert.Equal(t, "D2", records[1].Designation)
	assert.NotEmpty(t, gotQuery.Get(CacheBustParam))
}

func TestFetchHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Fetch(context.Background())
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, fe.StatusCode)
	assert.Contains(t, err.Error(), "500")
}

func TestFetchWebAppError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Sheet not found", "details": "Aba 'Status' ausente"}`))
	})

	_, err := c.Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "web app error: Sheet not found - Aba 'Status' ausente", err.Error())
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := NewClient(srv.URL, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Fetch(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Zero(t, fe.StatusCode)
	assert.Contains(t, err.Error(), "request failed")
}

func TestDecode(t *testing.T) {
	t.Run("empty array", func(t *testing.T) {
		records, err := Decode([]byte(`{"data": []}`))
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	formatCases := map[string]string{
		"data is an object": `{"data": {"a": 1}}`,
		"data is a string":  `{"data": "x"}`,
		"data is null":      `{"data": null}`,
		"data missing":      `{}`,
		"body is an array":  `[]`,
		"body is not json":  `<html>login</html>`,
	}
	for name, body := range formatCases {
		t.Run(name, func(t *testing.T) {
			records, err := Decode([]byte(body))
			assert.Nil(t, records)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe), "err=%v", err)
		})
	}

	t.Run("error field wins over data", func(t *testing.T) {
		_, err := Decode([]byte(`{"error": "quota", "data": []}`))
		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "web app error: quota", err.Error())
	})

	t.Run("falsy error values are ignored", func(t *testing.T) {
		for _, v := range []string{`false`, `0`, `0.0`, `""`, `null`} {
			records, err := Decode([]byte(`{"error": ` + v + `, "data": [{"Designação": "D1"}]}`))
			require.NoError(t, err, "error=%s", v)
			require.Len(t, records, 1)
			assert.Equal(t, "D1", records[0].Designation)
		}
	})

	t.Run("truthy non-string error values", func(t *testing.T) {
		for _, v := range []string{`true`, `503`, `{"code": "x"}`} {
			_, err := Decode([]byte(`{"error": ` + v + `, "data": []}`))
			var fe *FetchError
			require.True(t, errors.As(err, &fe), "error=%s", v)
			assert.Contains(t, err.Error(), "web app error: ")
		}
		_, err := Decode([]byte(`{"error": 503, "data": []}`))
		assert.EqualError(t, err, "web app error: 503")
	})
}

func TestProxyRotator(t *testing.T) {
	r, err := NewProxyRotator([]string{"http://p1:8000", " ", "http://p2:8000"})
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())

	assert.Equal(t, "p1:8000", r.Next().Host)
	assert.Equal(t, "p2:8000", r.Next().Host)
	assert.Equal(t, "p1:8000", r.Next().Host)

	_, err = NewProxyRotator([]string{"not a url"})
	assert.Error(t, err)

	empty, err := NewProxyRotator(nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Next())
}
