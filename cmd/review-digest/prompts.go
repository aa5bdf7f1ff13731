package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

func loadPromptHeaderFromFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("chunk-prompt-file is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read chunk-prompt-file: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("chunk-prompt-file is empty after trimming whitespace")
	}
	return s, nil
}
