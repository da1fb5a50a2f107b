package service

import "context"

// ChatService answers a free-form prompt with generated text.
type ChatService interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type chatService struct {
	generator Generator
}

// NewChatService returns a ChatService that forwards every prompt to gen.
func NewChatService(gen Generator) ChatService {
	return &chatService{generator: gen}
}

// Chat passes prompt to the generator untouched and returns its result and
// error as they are. Empty prompts are forwarded too.
func (s *chatService) Chat(ctx context.Context, prompt string) (string, error) {
	return s.generator.Generate(ctx, prompt)
}
