package ai

import "context"

// ScriptedClient replays canned completions in order, recording every request
// it receives. Once the script runs out it keeps returning the last reply.
type ScriptedClient struct {
	Replies  []string
	Err      error
	Requests []Request
}

func (c *ScriptedClient) Complete(_ context.Context, req Request) (string, error) {
	c.Requests = append(c.Requests, req)
	if c.Err != nil {
		return "", c.Err
	}
	if len(c.Replies) == 0 {
		return "", ErrMalformedResponse
	}
	idx := len(c.Requests) - 1
	if idx >= len(c.Replies) {
		idx = len(c.Replies) - 1
	}
	return c.Replies[idx], nil
}

func (c *ScriptedClient) CallCount() int {
	return len(c.Requests)
}
