package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markis/jawab/internal/answer"
	"github.com/markis/jawab/internal/stream"
)

func drain(p *stream.Parser) ([]stream.Event, error) {
	var events []stream.Event
	for ev := range p.Events() {
		if ev.Error != nil {
			return events, ev.Error
		}
		events = append(events, ev)
	}
	return events, nil
}

func TestQuestion_Validate(t *testing.T) {
	assert.NoError(t, Question{Text: "What is a factorial?", Ratio: 0}.Validate())
	assert.NoError(t, Question{Text: "x", Ratio: 1}.Validate())
	assert.ErrorIs(t, Question{Text: "  \t", Ratio: 0.8}.Validate(), ErrEmptyQuestion)
	assert.ErrorIs(t, Question{Text: "x", Ratio: 1.01}.Validate(), ErrRatioRange)
	assert.ErrorIs(t, Question{Text: "x", Ratio: -0.5}.Validate(), ErrRatioRange)
}

func TestClient_RequestURL(t *testing.T) {
	c := New("http://example.test:8089/", WithHTTPClient(http.DefaultClient))

	got, err := c.RequestURL(Question{Text: "What is 2+2 & why?", Ratio: 0.8})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8089/get_jawab?question=What+is+2%2B2+%26+why%3F&ratio=0.8", got)

	_, err = New("ftp://example.test").RequestURL(Question{Text: "x"})
	assert.Error(t, err)
}

func TestClient_Stream(t *testing.T) {
	var gotQuery, gotAccept, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAccept = r.Header.Get("Accept")
		gotRequestID = r.Header.Get("X-Request-Id")
		assert.Equal(t, AnswerPath, r.URL.Path)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			"data: Hello<newline>World",
			"data: <end_of_english>",
			"data: नमस्ते",
			"data: CLOSE_CONNECTION",
		} {
			fmt.Fprintf(w, "%s\n\n", line)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	p, err := c.Stream(context.Background(), Question{Text: "greet me", Ratio: 0.5})
	require.NoError(t, err)

	events, err := drain(p)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, stream.KindTerminator, events[3].Kind)

	assert.Equal(t, "question=greet+me&ratio=0.5", gotQuery)
	assert.Equal(t, "text/event-stream", gotAccept)
	assert.NotEmpty(t, gotRequestID)

	acc := &answer.Accumulator{}
	for _, ev := range events {
		acc.Append(ev)
	}
	sections := acc.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, answer.English, sections[0].Kind)
	assert.Equal(t, answer.HindiDevanagari, sections[1].Kind)
}

func TestClient_StreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	_, err := c.Stream(context.Background(), Question{Text: "q", Ratio: 0.8})

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "model overloaded", statusErr.Body)
}

func TestClient_StreamRejectsInvalidQuestion(t *testing.T) {
	c := New("http://127.0.0.1:1", WithHTTPClient(http.DefaultClient))

	_, err := c.Stream(context.Background(), Question{Text: "", Ratio: 0.8})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestClient_StreamConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	_, err := c.Stream(context.Background(), Question{Text: "q", Ratio: 0.8})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_StreamDroppedConnectionKeepsPartialEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: Namaste\n")
		w.(http.Flusher).Flush()
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	p, err := c.Stream(context.Background(), Question{Text: "q", Ratio: 0.8})
	require.NoError(t, err)

	events, err := drain(p)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Namaste", events[0].Text)
}

func TestClient_StreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: first\n")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := New(srv.URL, WithHTTPClient(srv.Client()))
	p, err := c.Stream(ctx, Question{Text: "q", Ratio: 0.8})
	require.NoError(t, err)

	ev := <-p.Events()
	assert.Equal(t, "first", ev.Text)
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-p.Events():
			if !ok {
				return
			}
			t.Errorf("unexpected event after cancellation: %+v", ev)
		case <-deadline:
			t.Fatal("events channel not closed after cancellation")
		}
	}
}

func TestClient_EmptyAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, WithHTTPClient(srv.Client()))
	p, err := c.Stream(context.Background(), Question{Text: "anything", Ratio: DefaultRatio})
	require.NoError(t, err)

	events, err := drain(p)
	require.NoError(t, err)
	assert.Empty(t, events)
}
