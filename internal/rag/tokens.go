package rag

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenCounter counts tokens with a tiktoken encoding
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding
func NewTiktokenCounter() (*TiktokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

// CountTokens returns the number of tokens in text
func (c *TiktokenCounter) CountTokens(text string) int {
	if c == nil || c.encoding == nil {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}
