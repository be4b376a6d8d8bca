// Package llm provides a streaming chat client for OpenAI-compatible APIs.
//
// A single Client covers every supported vendor; vendors differ only by base
// URL, wire format, and auth header, so they are configuration presets rather
// than separate types. Deepseek, Grok, Doubao, Qwen, OpenAI and Gemini all
// speak the OpenAI chat-completions protocol; Ollama speaks its own
// JSON-lines protocol and is handled by the same client behind a wire switch.
//
// Example usage:
//
//	client, _ := llm.NewClient(
//	    llm.WithVendor(llm.VendorDeepseek),
//	    llm.WithAPIKey(os.Getenv("DEEPSEEK_API_KEY")),
//	    llm.WithModel("deepseek-chat"),
//	)
//	defer client.Close()
//
//	stream, _ := client.Stream(ctx, []llm.Message{
//	    llm.NewUserMessage("Hello!"),
//	})
//	for {
//	    chunk, err := stream.Recv()
//	    if err != nil || chunk.Done {
//	        break
//	    }
//	    fmt.Print(chunk.Delta)
//	}
package llm

import "context"

// Provider is the chat inference interface.
type Provider interface {
	// Chat generates a complete response from a sequence of messages.
	Chat(ctx context.Context, msgs []Message) (*ChatResponse, error)

	// Stream generates a streaming response for real-time output.
	Stream(ctx context.Context, msgs []Message) (Stream, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Stream is a streaming chat response.
type Stream interface {
	// Recv returns the next chunk. The terminal chunk has Done set.
	Recv() (StreamChunk, error)

	// Close stops the stream and releases resources.
	Close() error
}

// StreamChunk is a piece of a streaming response.
type StreamChunk struct {
	// Delta is the incremental text content.
	Delta string

	// Done is true when the stream is complete.
	Done bool
}

// ChatResponse is a complete chat completion.
type ChatResponse struct {
	// Content is the assistant's response text.
	Content string

	// Model is the model that produced the response.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}
