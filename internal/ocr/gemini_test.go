package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"ktpapi/internal/apperror"
	"ktpapi/internal/config"
)

type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	calls    int
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.messages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestGemini_ExtractText(t *testing.T) {
	tests := []struct {
		name    string
		resp    *llms.ContentResponse
		err     error
		want    string
		wantErr error
	}{
		{
			name: "first choice returned",
			resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: `{"NIK":"1"}`}, {Content: "ignored"}}},
			want: `{"NIK":"1"}`,
		},
		{
			name:    "no choices",
			resp:    &llms.ContentResponse{},
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "blank content",
			resp:    &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "  \n"}}},
			wantErr: ErrEmptyResponse,
		},
		{
			name:    "model error",
			err:     errors.New("quota exceeded"),
			wantErr: errors.New("quota exceeded"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{resp: tt.resp, err: tt.err}
			g := NewGeminiWithModel(m, config.GeminiConfig{Model: "gemini-2.0-flash"}, quietLogger())

			got, err := g.ExtractText(context.Background(), []byte{0xff, 0xd8}, "image/jpeg", "read it")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperror.ErrExtraction)
				if errors.Is(tt.wantErr, ErrEmptyResponse) {
					assert.ErrorIs(t, err, ErrEmptyResponse)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGemini_SendsImageAndPrompt(t *testing.T) {
	m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}}
	g := NewGeminiWithModel(m, config.GeminiConfig{Model: "gemini-2.0-flash"}, quietLogger())
	image := []byte("png-bytes")

	_, err := g.ExtractText(context.Background(), image, "image/png", "extract the card")

	require.NoError(t, err)
	require.Len(t, m.messages, 1)
	msg := m.messages[0]
	assert.Equal(t, llms.ChatMessageTypeHuman, msg.Role)
	require.Len(t, msg.Parts, 2)

	bin, ok := msg.Parts[0].(llms.BinaryContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", bin.MIMEType)
	assert.Equal(t, image, bin.Data)

	text, ok := msg.Parts[1].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, "extract the card", text.Text)
	assert.Equal(t, GeminiName, g.Name())
}

func TestGemini_RateLimitHonorsContext(t *testing.T) {
	m := &fakeModel{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "ok"}}}}
	g := NewGeminiWithModel(m, config.GeminiConfig{RateLimit: 0.001, RateBurst: 1}, quietLogger())

	_, err := g.ExtractText(context.Background(), nil, "image/jpeg", "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.ExtractText(ctx, nil, "image/jpeg", "p")

	assert.ErrorIs(t, err, apperror.ErrExtraction)
	assert.Equal(t, 1, m.calls, "second call must not reach the model")
}

func TestNewGemini_RequiresAPIKey(t *testing.T) {
	_, err := NewGemini(context.Background(), config.GeminiConfig{Model: "gemini-2.0-flash"}, quietLogger())

	assert.Error(t, err)
}
