package services_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zenith-casino/internal/models"
	"zenith-casino/internal/services"
)

var winRequest = models.CommentaryRequest{
	Game:    models.GamePlinko,
	Outcome: "win",
	Amount:  25000,
	Balance: 520000,
}

func newGeminiServer(t *testing.T, handler http.HandlerFunc) *services.GeminiCommentator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return services.NewGeminiCommentator("test-key", "gemini-2.5-flash", srv.URL+"/")
}

func TestGeminiCommentator(t *testing.T) {
	var gotPath, gotKey, gotBody string
	commentator := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"  The house "},{"text":"weeps tonight.\n"}]}}]}`)
	})

	msg, err := commentator.Comment(context.Background(), winRequest)
	require.NoError(t, err)
	assert.Equal(t, "The house weeps tonight.", msg)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "won 250.00 coins playing plinko")
	assert.Contains(t, gotBody, `"maxOutputTokens":60`)
}

func TestGeminiCommentatorErrors(t *testing.T) {
	commentator := newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	_, err := commentator.Comment(context.Background(), winRequest)
	assert.ErrorIs(t, err, models.ErrCommentaryUnavailable)

	commentator = newGeminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "not json")
	})
	_, err = commentator.Comment(context.Background(), winRequest)
	assert.ErrorIs(t, err, models.ErrCommentaryUnavailable)
}

type stubCommentator struct {
	msg   string
	err   error
	delay time.Duration
}

func (s stubCommentator) Comment(ctx context.Context, req models.CommentaryRequest) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.msg, s.err
}

func TestDealerCommentate(t *testing.T) {
	ctx := context.Background()
	lossRequest := winRequest
	lossRequest.Outcome = "loss"

	tests := []struct {
		name        string
		commentator services.Commentator
		req         models.CommentaryRequest
		want        string
	}{
		{"reply", stubCommentator{msg: "Nice."}, winRequest, "Nice."},
		{"empty reply", stubCommentator{}, winRequest, services.IdleMessage},
		{"error on win", stubCommentator{err: models.ErrCommentaryUnavailable}, winRequest, services.FallbackMessage("win")},
		{"error on loss", stubCommentator{err: models.ErrCommentaryUnavailable}, lossRequest, services.FallbackMessage("loss")},
		{"timeout", stubCommentator{msg: "late", delay: time.Second}, winRequest, services.FallbackMessage("win")},
		{"no commentator", nil, lossRequest, services.FallbackMessage("loss")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dealer := services.NewDealerService(tt.commentator, 20*time.Millisecond, nil)
			assert.Equal(t, tt.want, dealer.Commentate(ctx, tt.req))
		})
	}
	assert.NotEqual(t, services.FallbackMessage("win"), services.FallbackMessage("loss"))
}

type deadlineCommentator struct {
	deadline *time.Time
}

func (d deadlineCommentator) Comment(ctx context.Context, req models.CommentaryRequest) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		*d.deadline = deadline
	}
	return "ok", nil
}

func TestDealerZeroTimeoutUsesDefault(t *testing.T) {
	var deadline time.Time
	dealer := services.NewDealerService(deadlineCommentator{deadline: &deadline}, 0, nil)

	start := time.Now()
	assert.Equal(t, "ok", dealer.Commentate(context.Background(), winRequest))
	require.False(t, deadline.IsZero(), "commentary must always run under a deadline")
	assert.WithinDuration(t, start.Add(services.DefaultCommentaryTimeout), deadline, time.Second)
}

func TestDealerAnnounce(t *testing.T) {
	bc := &recordingBroadcaster{}
	dealer := services.NewDealerService(stubCommentator{msg: "Big win!"}, time.Second, bc)

	dealer.Announce(testAccountID, winRequest)
	assert.Eventually(t, func() bool {
		bc.mu.Lock()
		defer bc.mu.Unlock()
		return len(bc.dealer) == 1 && bc.dealer[0] == "Big win!"
	}, time.Second, 5*time.Millisecond)

	dealer.Say(testAccountID, services.RefillMessage)
	bc.mu.Lock()
	defer bc.mu.Unlock()
	assert.Equal(t, services.RefillMessage, bc.dealer[len(bc.dealer)-1])
}

func TestGreetingMessage(t *testing.T) {
	msg := services.GreetingMessage("lucky.player@example.com")
	assert.True(t, strings.Contains(msg, "lucky.player"))
	assert.False(t, strings.Contains(msg, "@example.com"))
}
