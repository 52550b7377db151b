package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"zenith-casino/internal/models"
)

const (
	RefillMessage   = "Refilled! Use them wisely, or don't. I'm just the dealer."
	IdleMessage     = "Place your bets, folks."
	winFallback     = "Impressive streak! Keep it up."
	lossFallback    = "Better luck next time, champ."
	commentaryTemp  = 0.8
	commentaryLimit = 60

	DefaultCommentaryTimeout = 4 * time.Second
)

// Commentator produces one line of flavour text for a settled round.
type Commentator interface {
	Comment(ctx context.Context, req models.CommentaryRequest) (string, error)
}

// GeminiCommentator calls the Generative Language generateContent endpoint.
type GeminiCommentator struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiCommentator(apiKey, model, baseURL string) *GeminiCommentator {
	return &GeminiCommentator{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultCommentaryTimeout},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func commentaryPrompt(req models.CommentaryRequest) string {
	verb := "won"
	if req.Outcome != "win" {
		verb = "lost"
	}
	return fmt.Sprintf("You are a charismatic, slightly sarcastic high-stakes casino host named 'The Dealer'. "+
		"A player just %s %s coins playing %s. Their current balance is %s. "+
		"Give a one-sentence, punchy commentary on their performance.",
		verb, models.FormatCoins(req.Amount), req.Game, models.FormatCoins(req.Balance))
}

func (g *GeminiCommentator) Comment(ctx context.Context, req models.CommentaryRequest) (string, error) {
	body := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: commentaryPrompt(req)}}}},
	}
	body.GenerationConfig.Temperature = commentaryTemp
	body.GenerationConfig.MaxOutputTokens = commentaryLimit

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode commentary request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCommentaryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", models.ErrCommentaryUnavailable, resp.StatusCode, snippet)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCommentaryUnavailable, err)
	}

	if len(decoded.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// FallbackMessage is the line used when commentary cannot be fetched.
func FallbackMessage(outcome string) string {
	if outcome == "win" {
		return winFallback
	}
	return lossFallback
}

func GreetingMessage(email string) string {
	return fmt.Sprintf("Welcome back, %s. Feeling lucky?", models.DisplayName(email))
}

// DealerService turns resolutions into dealer lines. It never blocks or
// fails the caller; every error ends in a fallback line.
type DealerService struct {
	commentator Commentator
	timeout     time.Duration
	broadcaster Broadcaster
}

func NewDealerService(commentator Commentator, timeout time.Duration, broadcaster Broadcaster) *DealerService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	if timeout <= 0 {
		timeout = DefaultCommentaryTimeout
	}
	return &DealerService{
		commentator: commentator,
		timeout:     timeout,
		broadcaster: broadcaster,
	}
}

// Commentate waits at most the configured timeout for a line.
func (d *DealerService) Commentate(ctx context.Context, req models.CommentaryRequest) string {
	if d.commentator == nil {
		return FallbackMessage(req.Outcome)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	msg, err := d.commentator.Comment(ctx, req)
	if err != nil {
		log.WithError(err).WithField("game", req.Game).Warn("Dealer commentary unavailable")
		return FallbackMessage(req.Outcome)
	}
	if msg == "" {
		return IdleMessage
	}
	return msg
}

// Announce fetches a line in the background and pushes it to the account.
func (d *DealerService) Announce(accountID string, req models.CommentaryRequest) {
	go func() {
		msg := d.Commentate(context.Background(), req)
		d.broadcaster.BroadcastDealerMessage(accountID, msg)
	}()
}

// Say pushes a fixed line to the account.
func (d *DealerService) Say(accountID, message string) {
	d.broadcaster.BroadcastDealerMessage(accountID, message)
}
