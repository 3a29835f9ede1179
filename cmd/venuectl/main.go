// Package main implements the venuectl CLI for talking to a venued server.
//
// venuectl keeps the conversation history in a local JSON file between
// invocations, since venued itself stores no session state.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/venued/internal/session"
)

var (
	// serverURL is the base URL for the venued HTTP server
	serverURL string
	// sessionFile holds the conversation state between invocations
	sessionFile string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "venuectl",
	Short: "CLI for the venued venue assistant",
	Long: `venuectl is a command-line interface for the venued HTTP server.
It sends chat turns, carries the conversation history in a local session
file, and checks server health.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "venued server URL")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", defaultSessionFile(), "path to the local session file")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(healthCmd)
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".venuectl-session.json"
	}
	return filepath.Join(home, ".config", "venued", "session.json")
}

// chatCmd sends one conversation turn
var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a chat message to the venue assistant",
	Long: `Send a chat message to the venue assistant. The conversation history
is read from and written back to the session file, so follow-ups like
"yes, assess risks" continue the previous exchange.

Examples:
  # Start a conversation
  venuectl chat "I need a venue for a corporate event in Delhi next week"

  # Follow up on the offered venues
  venuectl chat "Yes, assess risks for all venues"

  # Use a different server
  venuectl chat --server http://localhost:9000 "venue 1"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

// resetCmd clears the local session
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the local conversation session",
	RunE:  runReset,
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check venued server health",
	RunE:  runHealth,
}

// ChatRequest matches internal/http/server.go ChatRequest
type ChatRequest struct {
	SessionID string         `json:"session_id,omitempty"`
	Message   string         `json:"message"`
	History   []session.Turn `json:"history"`
}

// ChatResponse matches internal/http/server.go ChatResponse
type ChatResponse struct {
	SessionID      string         `json:"session_id"`
	Response       string         `json:"response"`
	UpdatedHistory []session.Turn `json:"updated_history"`
}

// HealthResponse matches internal/http/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// localSession is the on-disk conversation state.
type localSession struct {
	SessionID string         `json:"session_id"`
	History   []session.Turn `json:"history"`
}

func loadSession() (localSession, error) {
	var s localSession
	data, err := os.ReadFile(sessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("reading session file: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing session file %s: %w", sessionFile, err)
	}
	return s, nil
}

func saveSession(s localSession) error {
	if err := os.MkdirAll(filepath.Dir(sessionFile), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := os.WriteFile(sessionFile, data, 0600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// runChat handles the chat command
func runChat(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")

	sess, err := loadSession()
	if err != nil {
		return err
	}

	reqJSON, err := json.Marshal(ChatRequest{
		SessionID: sess.SessionID,
		Message:   message,
		History:   sess.History,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/chat", serverURL)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Chat turns run several searches and model calls.
	client := &http.Client{Timeout: 5 * time.Minute}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(chatResp.Response)

	return saveSession(localSession{
		SessionID: chatResp.SessionID,
		History:   chatResp.UpdatedHistory,
	})
}

// runReset handles the reset command
func runReset(cmd *cobra.Command, args []string) error {
	if err := os.Remove(sessionFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}
	fmt.Println("Session cleared.")
	return nil
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}
