package main

import (
	"bytes"
	"calendar-sessions-backend/cmd/calendar-api/model"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformance_ConcurrentCSVProcessing(t *testing.T) {
	const workers = 8

	var b strings.Builder
	b.WriteString(csvHeader)
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&b, "Event %d,,,a;b,2025-01-10T09:00:00Z,2025-01-10T10:00:00Z,\n", i)
	}
	content := b.String()

	var wg sync.WaitGroup
	results := make([][]model.Event, workers)
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w], errs[w] = readEventsCSV(strings.NewReader(content), fmt.Sprintf("S%d", w), importNow, uuid.NewV7)
		}(w)
	}
	wg.Wait()

	ids := map[string]bool{}
	for w := 0; w < workers; w++ {
		require.NoError(t, errs[w])
		require.Len(t, results[w], 200)
		for _, e := range results[w] {
			assert.Equal(t, fmt.Sprintf("S%d", w), e.SessionID)
			assert.False(t, ids[e.ID])
			ids[e.ID] = true
		}
	}
}

func TestPerformance_ConcurrentRequests(t *testing.T) {
	e, mock := newWiredServer(t, "1M")

	const requests = 100
	var wg sync.WaitGroup
	codes := make([]int, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				codes[i] = serve(e, http.MethodGet, "/health", "").Code
			case 1:
				codes[i] = serve(e, http.MethodPost, "/sessions/S1/events", `{"title":""}`).Code
			default:
				codes[i] = serve(e, http.MethodGet, "/sessions/S1/events/bad-id", "").Code
			}
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		switch i % 3 {
		case 0:
			assert.Equal(t, http.StatusOK, code)
		case 1:
			assert.Equal(t, http.StatusBadRequest, code)
		default:
			assert.Equal(t, http.StatusNotFound, code)
		}
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func BenchmarkParseTimestamp_RFC3339(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := model.ParseTimestamp("2025-01-10T09:00:00.123Z", "start"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseTimestamp_LastLayout(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := model.ParseTimestamp("January 10, 2025", "start"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseCreateInput(b *testing.B) {
	body, err := model.DecodeBody([]byte(`{
		"title":"Planning","description":"Q1","location":"Room 4","attendees":["a","b","c"],
		"start":"2025-01-10T09:00:00Z","end":"2025-01-10T10:00:00Z","status":"tentative"}`))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := model.ParseCreateInput(body); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSerialize(b *testing.B) {
	desc := "Q1"
	event := model.Event{
		ID:          uuid.NewString(),
		Title:       "Planning",
		Description: &desc,
		Attendees:   []string{"a", "b", "c"},
		Start:       importNow,
		End:         importNow.Add(time.Hour),
		Status:      model.Confirmed,
		CreatedAt:   importNow,
		UpdatedAt:   importNow,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := json.Marshal(model.Serialize(event)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCSV_Export(b *testing.B) {
	events := make([]model.Event, 1000)
	for i := range events {
		events[i] = model.Event{
			Title:     fmt.Sprintf("Event %d", i),
			Attendees: []string{"a", "b"},
			Start:     importNow.Add(time.Duration(i) * time.Hour),
			End:       importNow.Add(time.Duration(i)*time.Hour + 30*time.Minute),
			Status:    model.Confirmed,
		}
	}

	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := writeEventsCSV(&buf, events); err != nil {
			b.Fatal(err)
		}
	}
}
